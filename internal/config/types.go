// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

const (
	// PackBehavior is the behavior pack ("BP").
	PackBehavior PackType = "BP"
	// PackResource is the resource pack ("RP").
	PackResource PackType = "RP"

	// DefaultSrcPath is used when neither the config nor the CLI set srcPath.
	DefaultSrcPath = "src"
	// DefaultOutPath is used when neither the config nor the CLI set outPath.
	DefaultOutPath = "dist"
	// DefaultComMojangPath is the com.mojang folder of a UWP install, relative
	// to the user's home directory.
	DefaultComMojangPath = "AppData/Local/Packages/Microsoft.MinecraftUWP_8wekyb3d8bbwe/LocalState/games/com.mojang"

	// WorkDirName is the per-project working directory holding installed
	// modules and packaging scratch files.
	WorkDirName = ".blockbuild"
	// ModulesDirName is the directory under WorkDirName holding installed modules.
	ModulesDirName = "modules"
	// PacksDirName is the directory under srcPath holding one directory per pack.
	PacksDirName = "packs"
)

// ErrInvalidPackType is returned when a PackType value is not recognized.
var ErrInvalidPackType = errors.New("invalid pack type")

type (
	// PackType names one half of an add-on.
	PackType string

	// InvalidPackTypeError is returned when a PackType value is not recognized.
	// It wraps ErrInvalidPackType for errors.Is() compatibility.
	InvalidPackTypeError struct {
		Value PackType
	}

	// FilterInvocation is one entry of the configured filter list. Arguments
	// stay raw until matched with the filter's declared validator.
	FilterInvocation struct {
		ID        string `json:"id"`
		Arguments any    `json:"arguments,omitempty"`
	}

	// Config is the evaluated project configuration. All paths are absolute.
	Config struct {
		PackName      string             `json:"packName"`
		SrcPath       string             `json:"srcPath"`
		OutPath       string             `json:"outPath"`
		ComMojangPath string             `json:"comMojangPath"`
		Packs         []PackType         `json:"packs"`
		Filters       []FilterInvocation `json:"filters"`

		// ProjectDir is the directory the config was loaded from.
		ProjectDir string `json:"-"`
	}

	// BuildFlags are the user-chosen switches of a single build.
	BuildFlags struct {
		Production bool `json:"production"`
		Package    bool `json:"package"`
		Watch      bool `json:"watch"`
	}

	// BuildContext is shared by reference into every namespace factory and
	// filter sandbox. It is not modified once a build starts.
	BuildContext struct {
		Flags  BuildFlags `json:"buildFlags"`
		Config *Config    `json:"config"`
	}
)

// String returns the string representation of the PackType.
func (p PackType) String() string { return string(p) }

// Validate returns nil if the PackType is BP or RP.
func (p PackType) Validate() error {
	switch p {
	case PackBehavior, PackResource:
		return nil
	default:
		return &InvalidPackTypeError{Value: p}
	}
}

// DevelopmentDir is the com.mojang subdirectory development copies of this
// pack type are mirrored to.
func (p PackType) DevelopmentDir() string {
	if p == PackResource {
		return "development_resource_packs"
	}
	return "development_behavior_packs"
}

// Error implements the error interface.
func (e *InvalidPackTypeError) Error() string {
	return fmt.Sprintf("invalid pack type %q (valid: BP, RP)", e.Value)
}

// Unwrap returns ErrInvalidPackType so callers can use errors.Is for programmatic detection.
func (e *InvalidPackTypeError) Unwrap() error { return ErrInvalidPackType }

// HasPack reports whether the pack type is configured.
func (c *Config) HasPack(p PackType) bool {
	return slices.Contains(c.Packs, p)
}

// PacksDir returns <srcPath>/packs.
func (c *Config) PacksDir() string {
	return filepath.Join(c.SrcPath, PacksDirName)
}

// PackSourceDir returns <srcPath>/packs/<pack>.
func (c *Config) PackSourceDir(p PackType) string {
	return filepath.Join(c.PacksDir(), string(p))
}

// PackOutputDir returns <outPath>/<pack>.
func (c *Config) PackOutputDir(p PackType) string {
	return filepath.Join(c.OutPath, string(p))
}

// WorkDir returns <projectDir>/.blockbuild.
func (c *Config) WorkDir() string {
	return filepath.Join(c.ProjectDir, WorkDirName)
}

// ModulesDir returns <projectDir>/.blockbuild/modules.
func (c *Config) ModulesDir() string {
	return filepath.Join(c.WorkDir(), ModulesDirName)
}

// IsProduction reports whether the build skips development conveniences.
// Packaging always implies production.
func (f BuildFlags) IsProduction() bool {
	return f.Production || f.Package
}
