// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/issue"

	"github.com/spf13/cobra"
)

// requireArgs validates that every named positional argument is present.
// Extra arguments are rejected.
func requireArgs(names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if i := len(args); i < len(names) {
			return issue.NewCLIError(issue.CodeCLIMissingRequiredArgument,
				fmt.Sprintf("Missing required positional argument %d (`%s`).", i, names[i]))
		}
		return rejectExtraArgs(args, len(names))
	}
}

// optionalArgs accepts up to len(names) positional arguments.
func optionalArgs(names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		return rejectExtraArgs(args, len(names))
	}
}

func rejectExtraArgs(args []string, limit int) error {
	if len(args) <= limit {
		return nil
	}
	return issue.NewCLIError(issue.CodeCLIArgumentUnexpectedType,
		fmt.Sprintf("Unexpected positional argument %d (`%s`). Expected at most %d.", limit, args[limit], limit))
}

// subcommandArgs is the Args validator of commands that only group
// subcommands: any positional argument names a command that does not exist.
func subcommandArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	msg := fmt.Sprintf("The command `%s` does not exist.", strings.TrimSpace(cmd.CommandPath()+" "+args[0]))
	if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
		msg += fmt.Sprintf(" Did you mean `%s`?", strings.Join(suggestions, "`, `"))
	}
	return issue.NewCLIError(issue.CodeCLICommandNotFound, msg)
}

// flagError classifies a flag parsing failure reported by pflag.
func flagError(_ *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "bad flag syntax"), strings.Contains(msg, "'=' in -"):
		return &issue.Error{
			Kind:    issue.KindCLI,
			Code:    issue.CodeCLIParseEqualsAfterDash,
			Message: "Error parsing flags. Found `=` immediately after `-`.",
			Cause:   err,
		}
	default:
		return issue.NewCLIError(issue.CodeCLIFlagUnexpectedType, msg)
	}
}

// cobraError classifies errors cobra raises outside the flag parser and the
// Args validators. Anything it does not recognize is returned unchanged.
func cobraError(err error) error {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "required flag(s)"):
		return issue.NewCLIError(issue.CodeCLIMissingRequiredFlag, msg)
	case strings.HasPrefix(msg, "unknown command"):
		return issue.NewCLIError(issue.CodeCLICommandNotFound, msg)
	default:
		return err
	}
}
