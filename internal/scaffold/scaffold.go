// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/extension"
	"github.com/fluffycraft/blockbuild/internal/filter"
	"github.com/fluffycraft/blockbuild/internal/issue"

	"github.com/google/uuid"
)

const (
	// DefaultLanguage is the only language the scaffold ships.
	DefaultLanguage = "en_US"

	extensionTemplate = "return function(deps)\n\treturn {}\nend\n"
	gitignoreContent  = "/dist\n/.blockbuild\n"
	mcignoreContent   = "/dist\n"
)

var (
	// manifestVersion is the [major, minor, patch] of generated packs.
	manifestVersion = [3]int{1, 0, 0}
	// minEngineVersion is the oldest game version generated packs target.
	minEngineVersion = [3]int{1, 19, 0}
)

type (
	// Options configures Init.
	Options struct {
		// Dir is the project directory; empty means the working directory.
		Dir      string
		PackName string
		Authors  []string
		NoBP     bool
		NoRP     bool
		// Force overwrites an existing config file.
		Force bool
		// Version is recorded in the manifests' generated_with metadata.
		Version string
		// NewUUID generates pack and module UUIDs. Defaults to uuid.NewString.
		NewUUID func() string
	}

	manifest struct {
		FormatVersion int                  `json:"format_version"`
		Metadata      manifestMetadata     `json:"metadata"`
		Header        manifestHeader       `json:"header"`
		Modules       []manifestModule     `json:"modules"`
		Dependencies  []manifestDependency `json:"dependencies,omitempty"`
	}

	manifestMetadata struct {
		Authors       []string            `json:"authors"`
		GeneratedWith map[string][]string `json:"generated_with"`
	}

	manifestHeader struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		MinEngineVersion [3]int `json:"min_engine_version"`
		UUID             string `json:"uuid"`
		Version          [3]int `json:"version"`
	}

	manifestModule struct {
		Type    string `json:"type"`
		UUID    string `json:"uuid"`
		Version [3]int `json:"version"`
	}

	manifestDependency struct {
		UUID    string `json:"uuid"`
		Version [3]int `json:"version"`
	}

	projectConfig struct {
		PackName string                    `json:"packName"`
		Packs    []config.PackType         `json:"packs"`
		Filters  []config.FilterInvocation `json:"filters"`
	}
)

// Packs returns the pack types selected by the flags.
func (o Options) Packs() []config.PackType {
	var packs []config.PackType
	if !o.NoBP {
		packs = append(packs, config.PackBehavior)
	}
	if !o.NoRP {
		packs = append(packs, config.PackResource)
	}
	return packs
}

// Init scaffolds a project and returns the paths it wrote, relative to the
// project directory and slash-separated.
func Init(opts Options) ([]string, error) {
	if opts.NoBP && opts.NoRP {
		return nil, issue.NewCLIError(issue.CodeCLIInitNoPacks, "`--noBP` and `--noRP` cannot be used together.")
	}
	if strings.TrimSpace(opts.PackName) == "" {
		return nil, issue.NewCLIError(issue.CodeCLIMissingRequiredArgument, "The pack name cannot be empty.")
	}
	if opts.NewUUID == nil {
		opts.NewUUID = uuid.NewString
	}

	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}

	configPath := filepath.Join(dir, config.ConfigFileName+".json")
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return nil, issue.NewErrorContext().
			WithOperation("initialize project").
			WithResource(configPath).
			WithSuggestion("Use --force to overwrite the existing config").
			Wrap(fs.ErrExist).
			BuildError()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to check for existing config: %w", err)
	}

	w := &writer{dir: dir}

	w.mkdir(config.DefaultOutPath)
	w.mkdir(filepath.Join(config.DefaultSrcPath, filter.DirName))
	w.write(filepath.Join(config.DefaultSrcPath, extension.FileName), []byte(extensionTemplate))
	w.json(config.ConfigFileName+".json", projectConfig{
		PackName: opts.PackName,
		Packs:    opts.Packs(),
		Filters:  []config.FilterInvocation{},
	})
	w.write(".gitignore", []byte(gitignoreContent))
	w.write(".mcignore", []byte(mcignoreContent))

	ids := map[config.PackType]string{
		config.PackBehavior: opts.NewUUID(),
		config.PackResource: opts.NewUUID(),
	}
	for _, p := range opts.Packs() {
		w.pack(opts, p, ids)
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.written, nil
}

// writer records the first failure and skips everything after it.
type writer struct {
	dir     string
	written []string
	err     error
}

func (w *writer) mkdir(rel string) {
	if w.err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Join(w.dir, rel), 0o755); err != nil {
		w.err = fmt.Errorf("failed to create %s: %w", rel, err)
	}
}

func (w *writer) write(rel string, data []byte) {
	w.mkdir(filepath.Dir(rel))
	if w.err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(w.dir, rel), data, 0o644); err != nil {
		w.err = fmt.Errorf("failed to write %s: %w", rel, err)
		return
	}
	w.written = append(w.written, filepath.ToSlash(rel))
}

func (w *writer) json(rel string, v any) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		if w.err == nil {
			w.err = fmt.Errorf("failed to encode %s: %w", rel, err)
		}
		return
	}
	w.write(rel, append(data, '\n'))
}

// pack writes src/packs/<p>/manifest.json and its texts. Each pack depends
// on the other when both are created.
func (w *writer) pack(opts Options, p config.PackType, ids map[config.PackType]string) {
	root := filepath.Join(config.DefaultSrcPath, config.PacksDirName, string(p))

	moduleType, other, hasOther := "data", config.PackResource, !opts.NoRP
	if p == config.PackResource {
		moduleType, other, hasOther = "resources", config.PackBehavior, !opts.NoBP
	}

	authors := opts.Authors
	if authors == nil {
		authors = []string{}
	}
	generatedWith := map[string][]string{config.AppName: {}}
	if opts.Version != "" {
		generatedWith[config.AppName] = []string{opts.Version}
	}

	m := manifest{
		FormatVersion: 2,
		Metadata:      manifestMetadata{Authors: authors, GeneratedWith: generatedWith},
		Header: manifestHeader{
			Name:             "pack.name",
			Description:      "pack.description",
			MinEngineVersion: minEngineVersion,
			UUID:             ids[p],
			Version:          manifestVersion,
		},
		Modules: []manifestModule{{Type: moduleType, UUID: opts.NewUUID(), Version: manifestVersion}},
	}
	if hasOther {
		m.Dependencies = []manifestDependency{{UUID: ids[other], Version: manifestVersion}}
	}

	w.json(filepath.Join(root, "manifest.json"), m)
	w.write(filepath.Join(root, "texts", DefaultLanguage+".lang"),
		[]byte(fmt.Sprintf("pack.name=%s\npack.description=", opts.PackName)))
	w.json(filepath.Join(root, "texts", "languages.json"), []string{DefaultLanguage})
}

// SplitAuthors splits a comma-separated author list, dropping blanks.
func SplitAuthors(s string) []string {
	authors := []string{}
	for a := range strings.SplitSeq(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}
