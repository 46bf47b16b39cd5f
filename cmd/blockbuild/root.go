// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "blockbuild",
		Short: "A Minecraft add-on compiler",
		Long: TitleStyle.Render("blockbuild") + SubtitleStyle.Render(" - A Minecraft add-on compiler") + `

blockbuild copies the packs of a project into an output directory, runs
the configured filters over them, and mirrors the result into com.mojang
or packages it as an .mcaddon file.

Filters are Lua or shell scripts under src/filters, or under an installed
module in .blockbuild/modules/<name>/filters.

` + SubtitleStyle.Render("Examples:") + `
  blockbuild init "My Pack" alex,sam   Create a new project
  blockbuild build                     Build and mirror into com.mojang
  blockbuild build --package           Build an .mcaddon file
  blockbuild build --watch             Rebuild on every change
  blockbuild filters                   List discovered filters
  blockbuild explain I1                Explain an error code`,
		Args: subcommandArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.SetFlagErrorFunc(flagError)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ./blockbuild.config.json or ./blockbuild.config.cue)")

	rootCmd.AddCommand(
		newBuildCommand(app, flags),
		newInitCommand(app),
		newFiltersCommand(app, flags),
		newConfigCommand(app, flags),
		newExplainCommand(app),
		newVersionCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
			fmt.Fprintln(w, renderFatal(err, verbose))
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// newLogger creates the process logger. Verbose mode lowers the level to
// debug so filter and watcher diagnostics are shown.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "blockbuild"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// renderFatal renders err behind a FATAL badge. Errors outside the issue
// taxonomy are reported as CLI errors when cobra raised them and as
// uncaught otherwise. Verbose mode appends the cause chain
// and the catalog entry for the error code, when there is one.
func renderFatal(err error, verbose bool) string {
	var out strings.Builder
	out.WriteString(FatalBadgeStyle.Render("FATAL"))
	out.WriteString(" ")
	out.WriteString(formatErrorForDisplay(err, verbose))

	if !verbose {
		return out.String()
	}
	entry := issue.Get(issue.CodeOf(err))
	if entry == nil {
		return out.String()
	}
	if md, renderErr := entry.Render("dark"); renderErr == nil {
		out.WriteString("\n")
		out.WriteString(md)
	}
	return out.String()
}

// formatErrorForDisplay formats an error for user display. Suggestions of
// an ActionableError are listed after the message; verbose mode adds the
// full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var (
		ie *issue.Error
		ae *issue.ActionableError
	)

	if !errors.As(err, &ie) {
		if errors.As(err, &ae) {
			return ae.Format(verboseMode)
		}
		err = issue.Uncaught(cobraError(err))
	}

	var msg strings.Builder
	msg.WriteString(err.Error())

	if errors.As(err, &ae) {
		for _, suggestion := range ae.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verboseMode {
		if cause := errors.Unwrap(err); cause != nil {
			msg.WriteString("\n\nError chain:")
			for depth := 1; cause != nil; depth++ {
				fmt.Fprintf(&msg, "\n  %d. %s", depth, cause.Error())
				cause = errors.Unwrap(cause)
			}
		}
	}

	return msg.String()
}

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the installed blockbuild version",
		Args:  optionalArgs(),
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(app.stdout, "Installed BlockBuild version: %s\n", getVersionString())
			return err
		},
	}
}
