// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fluffycraft/blockbuild/internal/build"
	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/watch"

	"github.com/spf13/cobra"
)

// buildFlagValues holds the flags of the build command.
type buildFlagValues struct {
	production bool
	pack       bool
	watch      bool
}

func newBuildCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &buildFlagValues{}

	cmd := &cobra.Command{
		Use:   "build [srcPath] [outPath]",
		Short: "Build the project",
		Long: `Build the project in the current directory.

srcPath and outPath override the paths from the config file and the
BLOCKBUILD_SRC_PATH / BLOCKBUILD_OUT_PATH environment variables.

Development builds are mirrored into com.mojang. Production builds are
left in outPath, and --package zips them into <outPath>/<packName>.mcaddon.`,
		Args: optionalArgs("srcPath", "outPath"),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.LoadOptions{ProjectDir: app.WorkDir, ConfigFilePath: rootFlags.configPath}
			if len(args) > 0 {
				opts.SrcPath = args[0]
			}
			if len(args) > 1 {
				opts.OutPath = args[1]
			}
			bflags := config.BuildFlags{
				Production: flags.production,
				Package:    flags.pack,
				Watch:      flags.watch,
			}

			if flags.watch {
				return runWatchMode(cmd.Context(), app, rootFlags, opts, bflags)
			}
			return runBuild(cmd.Context(), app, rootFlags, opts, bflags)
		},
	}

	cmd.Flags().BoolVarP(&flags.production, "production", "p", false, "build in production mode")
	cmd.Flags().BoolVar(&flags.pack, "package", false, "package as an .mcaddon file (implies --production)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "rebuild when sources change")

	return cmd
}

// loadBuildContext resolves the project configuration for one build.
func (a *App) loadBuildContext(ctx context.Context, opts config.LoadOptions, bflags config.BuildFlags) (*config.BuildContext, error) {
	cfg, err := a.Config.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &config.BuildContext{Flags: bflags, Config: cfg}, nil
}

func runBuild(ctx context.Context, app *App, rootFlags *rootFlagValues, opts config.LoadOptions, bflags config.BuildFlags) error {
	bc, err := app.loadBuildContext(ctx, opts, bflags)
	if err != nil {
		return err
	}

	result, err := app.builder(rootFlags).Build(ctx, bc)
	if err != nil {
		return err
	}

	renderBuildResult(app, bc, result)
	return nil
}

func renderBuildResult(app *App, bc *config.BuildContext, result *build.Result) {
	mode := "development"
	if bc.Flags.IsProduction() {
		mode = "production"
	}
	fmt.Fprintf(app.stdout, "%s Built %s (%s, %d filter(s))\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(bc.Config.PackName), mode, len(result.Invoked))

	for _, dir := range result.Mirrored {
		fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("mirrored to"), dir)
	}
	if result.Artifact != "" {
		rel := result.Artifact
		if r, err := filepath.Rel(bc.Config.ProjectDir, result.Artifact); err == nil {
			rel = r
		}
		fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("packaged"), CmdStyle.Render(rel))
	}
}

// runWatchMode builds once, then rebuilds whenever the project's sources,
// installed modules or config file change. The config is reloaded for every
// rebuild. Build failures are reported and watching continues; only a
// config that cannot be loaded up front stops it.
func runWatchMode(ctx context.Context, app *App, rootFlags *rootFlagValues, opts config.LoadOptions, bflags config.BuildFlags) error {
	bc, err := app.loadBuildContext(ctx, opts, bflags)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) {
		if buildErr := runBuild(ctx, app, rootFlags, opts, bflags); buildErr != nil {
			fmt.Fprintln(app.stderr, renderFatal(buildErr, rootFlags.verbose))
		}
	}

	fmt.Fprintf(app.stdout, "%s Watch mode: initial build of %s\n", CmdStyle.Render("→"), bc.Config.PackName)
	rebuild(ctx)

	wcfg, err := watch.ProjectConfig(bc.Config)
	if err != nil {
		return fmt.Errorf("failed to configure watcher: %w", err)
	}
	wcfg.Logger = newLogger(app.stderr, rootFlags.verbose).WithPrefix("watch")
	wcfg.OnChange = func(ctx context.Context, changed []string) error {
		fmt.Fprintf(app.stdout, "%s Detected %d change(s). Rebuilding...\n", CmdStyle.Render("→"), len(changed))
		rebuild(ctx)
		fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n\n", CmdStyle.Render("→"))
		return nil
	}

	w, err := watch.New(wcfg)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", CmdStyle.Render("→"))
	return w.Run(ctx)
}
