// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/fluffycraft/blockbuild/internal/build"
	"github.com/fluffycraft/blockbuild/internal/config"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and
	// delegates to its services.
	App struct {
		Config ConfigProvider
		// WorkDir is the project directory; empty means the process
		// working directory.
		WorkDir string
		stdout  io.Writer
		stderr  io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		WorkDir string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads project configuration.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:  deps.Config,
		WorkDir: deps.WorkDir,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// builder creates a Builder whose filter output goes to the app's streams.
func (a *App) builder(flags *rootFlagValues) *build.Builder {
	return build.New(build.Options{
		Logger: newLogger(a.stderr, flags.verbose),
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
}
