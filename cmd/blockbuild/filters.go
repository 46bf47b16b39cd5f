// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fluffycraft/blockbuild/internal/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newFiltersCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the filters a build can invoke",
		Long: `List every filter discovered in the project and its installed modules.

Discovery evaluates each filter's declaration, so extension and filter
definition errors are reported exactly as a build would report them.
No filter is invoked and the output directory is left untouched.`,
		Args: optionalArgs(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			bc := &config.BuildContext{Config: cfg}

			reg, err := app.builder(rootFlags).Discover(cmd.Context(), bc)
			if err != nil {
				return err
			}

			if reg.Len() == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No filters found."))
				return nil
			}

			rows := make([][]string, 0, reg.Len())
			for _, e := range reg.Entries() {
				args := "no"
				if e.Options.Arguments != nil {
					args = "yes"
				}
				path := e.Path
				if rel, relErr := filepath.Rel(cfg.ProjectDir, e.Path); relErr == nil {
					path = filepath.ToSlash(rel)
				}
				rows = append(rows, []string{e.ID, e.Namespace, args, path})
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(SubtitleStyle).
				Headers("ID", "NAMESPACE", "ARGUMENTS", "PATH").
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
			fmt.Fprintf(app.stdout, "%s\n", SubtitleStyle.Render(fmt.Sprintf("%d filter(s)", reg.Len())))
			return nil
		},
	}
}
