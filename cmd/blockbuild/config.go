// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `blockbuild config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the project configuration",
		Long: `Inspect the project configuration.

The configuration is read from blockbuild.config.json or
blockbuild.config.cue in the project directory, and BLOCKBUILD_SRC_PATH,
BLOCKBUILD_OUT_PATH and BLOCKBUILD_COM_MOJANG_PATH override it.`,
		Args: subcommandArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  optionalArgs(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the resolved configuration as CUE",
		Args:  optionalArgs(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			_, err = io.WriteString(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		Args:  optionalArgs(),
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := app.configFilePath(rootFlags)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

func (a *App) loadConfig(ctx context.Context, rootFlags *rootFlagValues) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ProjectDir: a.WorkDir, ConfigFilePath: rootFlags.configPath})
}

// configFilePath returns the --config value or the config file found in
// the project directory.
func (a *App) configFilePath(rootFlags *rootFlagValues) (string, error) {
	if rootFlags.configPath != "" {
		return rootFlags.configPath, nil
	}
	dir := a.WorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	path, ok := config.FindConfigFile(dir)
	if !ok {
		return "", fmt.Errorf("no %s.json or %s.cue in %s", config.ConfigFileName, config.ConfigFileName, dir)
	}
	return path, nil
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if path, pathErr := app.configFilePath(rootFlags); pathErr == nil {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("packName"), valueStyle.Render(cfg.PackName))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("srcPath"), valueStyle.Render(cfg.SrcPath))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("outPath"), valueStyle.Render(cfg.OutPath))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("comMojangPath"), valueStyle.Render(cfg.ComMojangPath))

	packs := make([]string, 0, len(cfg.Packs))
	for _, p := range cfg.Packs {
		packs = append(packs, p.String())
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("packs"), valueStyle.Render(strings.Join(packs, ", ")))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("filters"))
	if len(cfg.Filters) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
		return nil
	}
	for _, inv := range cfg.Filters {
		if inv.Arguments != nil {
			fmt.Fprintf(w, "  - %s %s\n", valueStyle.Render(inv.ID), VerboseStyle.Render(fmt.Sprintf("(arguments: %v)", inv.Arguments)))
		} else {
			fmt.Fprintf(w, "  - %s\n", valueStyle.Render(inv.ID))
		}
	}
	return nil
}
