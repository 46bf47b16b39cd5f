// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = r.Close() }()

	out := map[string]string{}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			out[f.Name] = ""
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestZip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "dist")
	writeTree(t, src, map[string]string{
		"BP/manifest.json":      `{"bp":true}`,
		"BP/items/sword.json":   `{}`,
		"RP/manifest.json":      `{"rp":true}`,
		"old.mcaddon":           "stale",
		"RP/textures/.DS_Store": "junk",
	})

	dst := filepath.Join(dir, "package.tmp")
	warnings, err := Zip(t.Context(), src, dst, Options{Exclude: []string{"*.mcaddon", "**/.DS_Store"}})
	if err != nil {
		t.Fatalf("Zip() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	got := readZip(t, dst)
	if got["BP/manifest.json"] != `{"bp":true}` {
		t.Errorf("BP/manifest.json = %q", got["BP/manifest.json"])
	}
	if _, ok := got["BP/items/sword.json"]; !ok {
		t.Error("nested file missing")
	}
	if _, ok := got["BP/"]; !ok {
		t.Error("directory entry missing")
	}
	for _, name := range []string{"old.mcaddon", "RP/textures/.DS_Store", "dist/BP/manifest.json"} {
		if _, ok := got[name]; ok {
			t.Errorf("%s should not be archived", name)
		}
	}
}

func TestZip_ExistingDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"src/a.txt": "a", "out.zip": "keep"})

	dst := filepath.Join(dir, "out.zip")
	if _, err := Zip(t.Context(), filepath.Join(dir, "src"), dst, Options{}); err == nil {
		t.Fatal("expected error for existing destination")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "keep" {
		t.Errorf("existing destination was modified: %q, %v", data, err)
	}
}

func TestZip_MissingSourceRemovesPartial(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "out.zip")
	if _, err := Zip(t.Context(), filepath.Join(dir, "missing"), dst, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("partial archive left behind: %v", err)
	}
}

func TestZip_SkipsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on Windows")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "dist")
	writeTree(t, src, map[string]string{"BP/real.json": "{}"})
	if err := os.Symlink(filepath.Join(src, "BP", "real.json"), filepath.Join(src, "BP", "link.json")); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out.zip")
	warnings, err := Zip(t.Context(), src, dst, Options{})
	if err != nil {
		t.Fatalf("Zip() error: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Path != "BP/link.json" {
		t.Errorf("warnings = %v, want one for BP/link.json", warnings)
	}

	var names []string
	for name := range readZip(t, dst) {
		names = append(names, name)
	}
	if slices.Contains(names, "BP/link.json") {
		t.Error("symlink should not be archived")
	}
}

func TestZip_InvalidPattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Zip(t.Context(), dir, filepath.Join(dir, "x.zip"), Options{Exclude: []string{"[unclosed"}}); err == nil {
		t.Error("expected invalid pattern error")
	}
}
