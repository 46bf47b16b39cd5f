// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "internal without cause",
			err:  NewInternalError(CodeInternalFilterNotFound, "Cannot execute filter with id `x` because it does not exist.", nil),
			want: "BlockBuildInternalError (I1): Cannot execute filter with id `x` because it does not exist.",
		},
		{
			name: "runtime with filter id and cause",
			err:  NewRuntimeError(CodeRuntimeMainFailed, "mod:sort", "Main function threw an error.", errors.New("boom")),
			want: "BlockBuildRuntimeError (RT4): In `mod:sort`\n\tMain function threw an error.\n\tboom",
		},
		{
			name: "cli",
			err:  NewCLIError(CodeCLIInitNoPacks, "`--noBP` and `--noRP` cannot be used together."),
			want: "BlockBuildCLIError (CLI6): `--noBP` and `--noRP` cannot be used together.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUncaught(t *testing.T) {
	t.Parallel()

	if Uncaught(nil) != nil {
		t.Error("Uncaught(nil) should be nil")
	}

	plain := errors.New("disk on fire")
	wrapped := Uncaught(plain)
	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatalf("Uncaught() = %T, want *Error", wrapped)
	}
	if e.Kind != KindUncaught || e.Code != CodeUncaughtCLI {
		t.Errorf("kind/code = %s/%s, want %s/%s", e.Kind, e.Code, KindUncaught, CodeUncaughtCLI)
	}
	if !errors.Is(wrapped, plain) {
		t.Error("Uncaught() should keep the original error in the chain")
	}
	if strings.Count(wrapped.Error(), "disk on fire") != 1 {
		t.Errorf("message should appear once, got %q", wrapped.Error())
	}

	classified := fmt.Errorf("build: %w", NewInternalError(CodeInternalBPNotFound, "missing", nil))
	if Uncaught(classified) != classified {
		t.Error("Uncaught() should leave classified errors untouched")
	}
}

func TestCodeOfAndFilterIDOf(t *testing.T) {
	t.Parallel()

	inner := NewRuntimeError(CodeRuntimeDefinitionOptions, "sort", "Invalid definition options.", nil)
	outer := NewRuntimeError(CodeNone, "", "wrapped", inner)

	if got := CodeOf(outer); got != CodeRuntimeDefinitionOptions {
		t.Errorf("CodeOf() = %s, want %s", got, CodeRuntimeDefinitionOptions)
	}
	if got := FilterIDOf(fmt.Errorf("ctx: %w", outer)); got != "sort" {
		t.Errorf("FilterIDOf() = %q, want %q", got, "sort")
	}
	if got := CodeOf(errors.New("plain")); got != CodeNone {
		t.Errorf("CodeOf(plain) = %s, want %s", got, CodeNone)
	}
}

func TestError_Is(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("build: %w", NewInternalError(CodeInternalFilterNotFound, "nope", nil))

	if !errors.Is(err, &Error{Code: CodeInternalFilterNotFound}) {
		t.Error("errors.Is should match by code")
	}
	if !errors.Is(err, &Error{Kind: KindInternal}) {
		t.Error("errors.Is should match by kind")
	}
	if errors.Is(err, &Error{Kind: KindRuntime}) {
		t.Error("errors.Is should not match a different kind")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("load config").
		WithResource("blockbuild.config.json").
		WithSuggestion("Run 'blockbuild init' to create one").
		Wrap(fmt.Errorf("read: %w", errors.New("no such file"))).
		Build()

	if got, want := err.Error(), "failed to load config: blockbuild.config.json: read: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	short := err.Format(false)
	if !strings.Contains(short, "• Run 'blockbuild init' to create one") {
		t.Errorf("Format(false) missing suggestion: %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) should not include the chain: %q", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "2. no such file") {
		t.Errorf("Format(true) should list the chain: %q", verbose)
	}

	if NewErrorContext().Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	for _, code := range []Code{
		CodeInternalFilterNotFound,
		CodeInternalBPNotFound,
		CodeInternalRPNotFound,
		CodeRuntimeDefinitionOptions,
		CodeRuntimeArgumentsNoParse,
		CodeSchemaConfig,
	} {
		entry := Get(code)
		if entry == nil {
			t.Errorf("Get(%s) returned nil", code)
			continue
		}
		if entry.Code() != code {
			t.Errorf("Get(%s).Code() = %s", code, entry.Code())
		}
		if strings.TrimSpace(string(entry.MarkdownMsg())) == "" {
			t.Errorf("Get(%s) has an empty message", code)
		}
	}

	if Get(CodeUncaughtCLI) != nil {
		t.Error("uncatalogued codes should return nil")
	}
	values := Values()
	if len(values) != 6 {
		t.Errorf("Values() = %d entries, want 6", len(values))
	}
	for i := 1; i < len(values); i++ {
		if values[i-1].Code() >= values[i].Code() {
			t.Errorf("Values() not ordered by code: %s before %s", values[i-1].Code(), values[i].Code())
		}
	}
	for _, entry := range values {
		if entry.Title() == "" {
			t.Errorf("%s has no title", entry.Code())
		}
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	entry := &Issue{code: CodeNone, mdMsg: "\n# Title\n\nSome guidance."}
	if got := entry.Title(); got != "Title" {
		t.Errorf("Title() = %q", got)
	}
	out, err := entry.Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "Some guidance.") {
		t.Errorf("Render() = %q", out)
	}
}
