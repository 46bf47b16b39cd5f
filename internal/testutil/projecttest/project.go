// SPDX-License-Identifier: MPL-2.0

package projecttest

import (
	"path/filepath"
	"testing"

	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/testutil"
)

type (
	// Option configures a test project.
	Option func(*Project)

	// Project is a project written to a temporary directory.
	Project struct {
		Dir    string
		Config *config.Config
		Flags  config.BuildFlags

		files     map[string]string
		skipPacks bool
	}
)

// New creates a project in t.TempDir(). By default it has:
//   - packName "demo" with srcPath "src" and outPath "dist"
//   - a BP pack with a manifest under src/packs/BP
//   - comMojangPath inside the project ("com.mojang")
//   - no filters
func New(t testing.TB, opts ...Option) *Project {
	t.Helper()

	dir := t.TempDir()
	p := &Project{
		Dir: dir,
		Config: &config.Config{
			PackName:      "demo",
			SrcPath:       filepath.Join(dir, config.DefaultSrcPath),
			OutPath:       filepath.Join(dir, config.DefaultOutPath),
			ComMojangPath: filepath.Join(dir, "com.mojang"),
			Packs:         []config.PackType{config.PackBehavior},
			ProjectDir:    dir,
		},
		files: map[string]string{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if !p.skipPacks {
		for _, pack := range p.Config.Packs {
			testutil.MustWriteFile(t, filepath.Join(p.Config.PackSourceDir(pack), "manifest.json"),
				`{"format_version": 2, "header": {"name": "`+string(pack)+`"}}`)
		}
	}
	testutil.WriteTree(t, dir, p.files)

	return p
}

// BuildContext returns the build context of the project.
func (p *Project) BuildContext() *config.BuildContext {
	return &config.BuildContext{Flags: p.Flags, Config: p.Config}
}

// Path joins slash-separated elements onto the project directory.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// --- Options ---

// WithPacks sets the configured packs.
func WithPacks(packs ...config.PackType) Option {
	return func(p *Project) {
		p.Config.Packs = packs
	}
}

// WithoutPackDirs skips creating src/packs/<pack> for the configured packs.
func WithoutPackDirs() Option {
	return func(p *Project) {
		p.skipPacks = true
	}
}

// WithFile adds a file; rel is slash-separated and relative to the project.
func WithFile(rel, content string) Option {
	return func(p *Project) {
		p.files[rel] = content
	}
}

// WithFilter appends a filter invocation to the config.
func WithFilter(id string, arguments any) Option {
	return func(p *Project) {
		p.Config.Filters = append(p.Config.Filters, config.FilterInvocation{ID: id, Arguments: arguments})
	}
}

// WithFlags sets the build flags.
func WithFlags(flags config.BuildFlags) Option {
	return func(p *Project) {
		p.Flags = flags
	}
}
