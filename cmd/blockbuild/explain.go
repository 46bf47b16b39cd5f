// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/issue"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain an error code",
		Long: `Show the guidance for an error code such as I1 or RT1.

Without a code, every error code that has guidance is listed.`,
		Args: optionalArgs("code"),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				listIssues(app)
				return nil
			}

			code := issue.Code(strings.ToUpper(args[0]))
			entry := issue.Get(code)
			if entry == nil {
				return issue.NewCLIError(issue.CodeCLIArgumentUnexpectedType,
					fmt.Sprintf("Unexpected value for positional argument 0 (`code`). No guidance exists for `%s`.", args[0]))
			}

			md, err := entry.Render("dark")
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, md)
			return nil
		},
	}
}

func listIssues(app *App) {
	entries := issue.Values()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{string(e.Code()), e.Title()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("CODE", "PROBLEM").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tableCellStyle.Foreground(ColorHighlight)
			}
			return tableCellStyle
		})

	fmt.Fprintln(app.stdout, t.Render())
}
