// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/fluffycraft/blockbuild/internal/scaffold"

	"github.com/spf13/cobra"
)

// initFlagValues holds the flags of the init command.
type initFlagValues struct {
	noBP  bool
	noRP  bool
	force bool
}

func newInitCommand(app *App) *cobra.Command {
	flags := &initFlagValues{}

	cmd := &cobra.Command{
		Use:   "init <packName> <authors>",
		Short: "Initialize a project",
		Long: `Initialize a blockbuild project in the current directory.

packName is written to the config and the packs' language files. authors
is a comma-separated list recorded in every manifest.`,
		Example: `  blockbuild init "Cool Pack" alex,sam
  blockbuild init tools alex --noRP`,
		Args: requireArgs("packName", "authors"),
		RunE: func(_ *cobra.Command, args []string) error {
			written, err := scaffold.Init(scaffold.Options{
				Dir:      app.WorkDir,
				PackName: args[0],
				Authors:  scaffold.SplitAuthors(args[1]),
				NoBP:     flags.noBP,
				NoRP:     flags.noRP,
				Force:    flags.force,
				Version:  Version,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(app.stdout, "%s Initialized %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(args[0]))
			for _, path := range written {
				fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("created"), path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.noBP, "noBP", false, "do not create a behavior pack")
	cmd.Flags().BoolVar(&flags.noRP, "noRP", false, "do not create a resource pack")
	cmd.Flags().BoolVar(&flags.force, "force", false, "overwrite an existing config file")

	return cmd
}
