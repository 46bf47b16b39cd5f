// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fluffycraft/blockbuild/internal/issue"
)

// runCLI executes the command tree rooted in dir and returns what it wrote.
func runCLI(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := NewApp(Dependencies{WorkDir: dir, Stdout: &out, Stderr: &errOut})
	root := NewRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	})

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "1.4.0", "abc1234", "2026-01-02"
	want := "1.4.0 (commit: abc1234, built: 2026-01-02)"
	if got := getVersionString(); got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	actionable := issue.NewErrorContext().
		WithOperation("locate pack").
		WithResource("src/packs/BP").
		WithSuggestion("Create src/packs/BP").
		Wrap(errors.New("stat failed")).
		BuildError()

	tests := []struct {
		name     string
		err      error
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "issue error",
			err:      issue.NewRuntimeError(issue.CodeRuntimeMainFailed, "sort", "Filter main function failed.", errors.New("boom")),
			contains: []string{"BlockBuildRuntimeError (RT4)", "In `sort`", "boom"},
			excludes: []string{"Error chain:"},
		},
		{
			name:     "issue error verbose",
			err:      issue.NewRuntimeError(issue.CodeRuntimeMainFailed, "sort", "Filter main function failed.", errors.New("boom")),
			verbose:  true,
			contains: []string{"Error chain:", "1. boom"},
		},
		{
			name:     "issue error wrapping actionable",
			err:      issue.NewInternalError(issue.CodeInternalBPNotFound, "BP pack directory not found.", actionable),
			contains: []string{"(I4)", "• Create src/packs/BP"},
		},
		{
			name:     "actionable",
			err:      actionable,
			contains: []string{"failed to locate pack: src/packs/BP", "• Create src/packs/BP"},
		},
		{
			name:     "cobra required flag",
			err:      errors.New(`required flag(s) "out" not set`),
			contains: []string{"BlockBuildCLIError (CLI3)", `required flag(s) "out" not set`},
		},
		{
			name:     "plain error is uncaught",
			err:      fmt.Errorf("unexpected: %w", errors.New("disk gone")),
			contains: []string{"BlockBuildUncaughtError (U0)", "unexpected: disk gone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := formatErrorForDisplay(tt.err, tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("output should not contain %q:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestRenderFatal(t *testing.T) {
	t.Parallel()

	err := issue.NewInternalError(issue.CodeInternalFilterNotFound,
		"Cannot execute filter with id `sort` because it does not exist.", nil)

	quiet := renderFatal(err, false)
	if !strings.Contains(quiet, "FATAL") || !strings.Contains(quiet, "(I1)") {
		t.Errorf("renderFatal() = %q", quiet)
	}
	if strings.Contains(quiet, "Filter not found") {
		t.Error("catalog entry should only be rendered in verbose mode")
	}

	if verbose := renderFatal(err, true); !strings.Contains(verbose, "Filter not found") {
		t.Errorf("verbose renderFatal() missing catalog entry:\n%s", verbose)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, _, err := runCLI(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "Installed BlockBuild version: ") {
		t.Errorf("output = %q", out)
	}
}

func TestCLIInputErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantCode issue.Code
	}{
		{name: "unknown command", args: []string{"bogus"}, wantCode: issue.CodeCLICommandNotFound},
		{name: "unknown subcommand", args: []string{"config", "bogus"}, wantCode: issue.CodeCLICommandNotFound},
		{name: "bad flag value", args: []string{"build", "--production=maybe"}, wantCode: issue.CodeCLIFlagUnexpectedType},
		{name: "unknown flag", args: []string{"build", "--nope"}, wantCode: issue.CodeCLIFlagUnexpectedType},
		{name: "missing flag value", args: []string{"build", "--config"}, wantCode: issue.CodeCLIFlagUnexpectedType},
		{name: "equals after dash", args: []string{"build", "-=x"}, wantCode: issue.CodeCLIParseEqualsAfterDash},
		{name: "bad long flag syntax", args: []string{"build", "--=x"}, wantCode: issue.CodeCLIParseEqualsAfterDash},
		{name: "too many build arguments", args: []string{"build", "a", "b", "c"}, wantCode: issue.CodeCLIArgumentUnexpectedType},
		{name: "too many init arguments", args: []string{"init", "pack", "me", "extra"}, wantCode: issue.CodeCLIArgumentUnexpectedType},
		{name: "argument to filters", args: []string{"filters", "extra"}, wantCode: issue.CodeCLIArgumentUnexpectedType},
		{name: "missing init argument", args: []string{"init", "pack"}, wantCode: issue.CodeCLIMissingRequiredArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCLI(t, t.TempDir(), tt.args...)
			if got := issue.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %s, want %s (%v)", got, tt.wantCode, err)
			}
			var ie *issue.Error
			if !errors.As(err, &ie) || ie.Kind != issue.KindCLI {
				t.Errorf("error = %v, want a CLI error", err)
			}
		})
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, t.TempDir(), "biuld")
	if err == nil || !strings.Contains(err.Error(), "Did you mean `build`") {
		t.Errorf("error = %v, want a suggestion for build", err)
	}
}

func TestRootCommand_NoArgs(t *testing.T) {
	t.Parallel()

	out, _, err := runCLI(t, t.TempDir())
	if err != nil {
		t.Fatalf("blockbuild error: %v", err)
	}
	if !strings.Contains(out, "blockbuild build --package") {
		t.Errorf("help output = %q", out)
	}
}

func TestExplainCommand(t *testing.T) {
	t.Parallel()

	out, _, err := runCLI(t, t.TempDir(), "explain")
	if err != nil {
		t.Fatalf("explain error: %v", err)
	}
	for _, want := range []string{"CODE", "I1", "Filter not found!", "Z1"} {
		if !strings.Contains(out, want) {
			t.Errorf("explain output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "I1") > strings.Index(out, "Z1") {
		t.Error("codes should be listed in order")
	}

	out, _, err = runCLI(t, t.TempDir(), "explain", "rt1")
	if err != nil {
		t.Fatalf("explain rt1 error: %v", err)
	}
	if !strings.Contains(out, "registered") {
		t.Errorf("explain rt1 output = %q", out)
	}

	_, _, err = runCLI(t, t.TempDir(), "explain", "Q9")
	if got := issue.CodeOf(err); got != issue.CodeCLIArgumentUnexpectedType {
		t.Errorf("explain Q9 code = %s, want CLI2 (%v)", got, err)
	}
}
