// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fluffycraft/blockbuild/internal/build"
	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/issue"
	"github.com/fluffycraft/blockbuild/internal/testutil"
)

// sequentialUUIDs returns a generator yielding uuid-0, uuid-1, ...
func sequentialUUIDs() func() string {
	n := 0
	return func() string {
		id := fmt.Sprintf("uuid-%d", n)
		n++
		return id
	}
}

func readManifest(t *testing.T, dir string, p config.PackType) manifest {
	t.Helper()
	var m manifest
	data := testutil.MustReadFile(t, filepath.Join(dir, "src", "packs", string(p), "manifest.json"))
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("decode %s manifest: %v", p, err)
	}
	return m
}

func TestInit_BothPacks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	written, err := Init(Options{
		Dir:      dir,
		PackName: "Cool Pack",
		Authors:  []string{"alex", "sam"},
		Version:  "1.2.3",
		NewUUID:  sequentialUUIDs(),
	})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	for _, want := range []string{
		"blockbuild.config.json",
		"src/api-extension.lua",
		".gitignore",
		".mcignore",
		"src/packs/BP/manifest.json",
		"src/packs/BP/texts/en_US.lang",
		"src/packs/BP/texts/languages.json",
		"src/packs/RP/manifest.json",
	} {
		if !slices.Contains(written, want) {
			t.Errorf("written = %v, missing %s", written, want)
		}
	}
	for _, d := range []string{"dist", "src/filters"} {
		if !testutil.Exists(t, filepath.Join(dir, d)) {
			t.Errorf("%s not created", d)
		}
	}

	bp := readManifest(t, dir, config.PackBehavior)
	rp := readManifest(t, dir, config.PackResource)

	if bp.FormatVersion != 2 || bp.Modules[0].Type != "data" || rp.Modules[0].Type != "resources" {
		t.Errorf("unexpected manifests: %+v / %+v", bp, rp)
	}
	if bp.Header.UUID == rp.Header.UUID || bp.Modules[0].UUID == rp.Modules[0].UUID {
		t.Error("UUIDs must be unique")
	}
	if len(bp.Dependencies) != 1 || bp.Dependencies[0].UUID != rp.Header.UUID {
		t.Errorf("BP dependencies = %+v, want the RP header uuid %s", bp.Dependencies, rp.Header.UUID)
	}
	if len(rp.Dependencies) != 1 || rp.Dependencies[0].UUID != bp.Header.UUID {
		t.Errorf("RP dependencies = %+v, want the BP header uuid %s", rp.Dependencies, bp.Header.UUID)
	}
	if !slices.Equal(bp.Metadata.Authors, []string{"alex", "sam"}) {
		t.Errorf("authors = %v", bp.Metadata.Authors)
	}
	if got := bp.Metadata.GeneratedWith["blockbuild"]; !slices.Equal(got, []string{"1.2.3"}) {
		t.Errorf("generated_with = %v", got)
	}

	lang := testutil.MustReadFile(t, filepath.Join(dir, "src", "packs", "RP", "texts", "en_US.lang"))
	if lang != "pack.name=Cool Pack\npack.description=" {
		t.Errorf("en_US.lang = %q", lang)
	}
}

func TestInit_SinglePack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Init(Options{Dir: dir, PackName: "bp-only", NoRP: true}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	if testutil.Exists(t, filepath.Join(dir, "src", "packs", "RP")) {
		t.Error("RP created despite NoRP")
	}
	if m := readManifest(t, dir, config.PackBehavior); len(m.Dependencies) != 0 {
		t.Errorf("dependencies = %+v, want none without RP", m.Dependencies)
	}

	raw := testutil.MustReadFile(t, filepath.Join(dir, "blockbuild.config.json"))
	var cfg projectConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cfg.Packs, []config.PackType{config.PackBehavior}) {
		t.Errorf("packs = %v", cfg.Packs)
	}
}

func TestInit_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     Options
		wantCode issue.Code
	}{
		{name: "no packs", opts: Options{PackName: "x", NoBP: true, NoRP: true}, wantCode: issue.CodeCLIInitNoPacks},
		{name: "blank pack name", opts: Options{PackName: "  "}, wantCode: issue.CodeCLIMissingRequiredArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.opts.Dir = t.TempDir()
			_, err := Init(tt.opts)
			if got := issue.CodeOf(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", got, tt.wantCode, err)
			}
			if entries, _ := os.ReadDir(tt.opts.Dir); len(entries) != 0 {
				t.Error("nothing should be written on invalid options")
			}
		})
	}
}

func TestInit_ExistingConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "blockbuild.config.json"), `{"packName": "old"}`)

	_, err := Init(Options{Dir: dir, PackName: "new"})
	var actionable *issue.ActionableError
	if !errors.As(err, &actionable) {
		t.Fatalf("Init() error = %v, want an actionable error", err)
	}

	if _, err := Init(Options{Dir: dir, PackName: "new", Force: true}); err != nil {
		t.Fatalf("Init(Force) error: %v", err)
	}
}

func TestInit_Buildable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Init(Options{Dir: dir, PackName: "fresh", Authors: SplitAuthors("me")}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	cfg, err := config.NewProvider().Load(t.Context(), config.LoadOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PackName != "fresh" {
		t.Errorf("PackName = %q", cfg.PackName)
	}

	bc := &config.BuildContext{Flags: config.BuildFlags{Production: true}, Config: cfg}
	if _, err := build.New(build.Options{}).Build(t.Context(), bc); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !testutil.Exists(t, filepath.Join(dir, "dist", "RP", "manifest.json")) {
		t.Error("scaffolded project did not build")
	}
}

func TestSplitAuthors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"alex", []string{"alex"}},
		{"alex, sam ,", []string{"alex", "sam"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := SplitAuthors(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("SplitAuthors(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
