// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/testutil"
)

const testDebounce = 50 * time.Millisecond

// startWatcher runs a watcher over cfg and reports every OnChange call on
// the returned channel. The watcher is stopped at test cleanup.
func startWatcher(t *testing.T, cfg Config) <-chan []string {
	t.Helper()

	fired := make(chan []string, 10)
	cfg.Debounce = testDebounce
	cfg.OnChange = func(_ context.Context, changed []string) error {
		fired <- changed
		return nil
	}

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})

	// Give the event loop time to start.
	time.Sleep(testDebounce)
	return fired
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitChange(t *testing.T, fired <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-fired:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := startWatcher(t, Config{BaseDir: dir})

	for _, name := range []string{"a.lua", "b.lua", "c.lua"} {
		writeFile(t, filepath.Join(dir, name), "filter()")
		time.Sleep(10 * time.Millisecond)
	}

	changed := waitChange(t, fired)
	for _, want := range []string{"a.lua", "b.lua", "c.lua"} {
		if !slices.Contains(changed, want) {
			t.Errorf("expected %q in changed files, got %v", want, changed)
		}
	}
	if !slices.IsSorted(changed) {
		t.Errorf("changed files should be sorted: %v", changed)
	}

	select {
	case extra := <-fired:
		t.Errorf("expected one debounced callback, got another with %v", extra)
	case <-time.After(4 * testDebounce):
	}
}

func TestWatcherProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &config.Config{
		SrcPath:    filepath.Join(dir, "src"),
		OutPath:    filepath.Join(dir, "dist"),
		ProjectDir: dir,
	}
	for _, d := range []string{"src/filters", "dist/BP", "notes"} {
		testutil.MustMkdirAll(t, filepath.Join(dir, d))
	}

	wcfg, err := ProjectConfig(cfg)
	if err != nil {
		t.Fatalf("ProjectConfig() error: %v", err)
	}
	fired := startWatcher(t, wcfg)

	// Output and unrelated files never trigger a rebuild.
	writeFile(t, filepath.Join(dir, "dist", "BP", "manifest.json"), "{}")
	writeFile(t, filepath.Join(dir, "notes", "todo.txt"), "x")
	select {
	case changed := <-fired:
		t.Fatalf("unexpected callback for %v", changed)
	case <-time.After(4 * testDebounce):
	}

	writeFile(t, filepath.Join(dir, "src", "filters", "sort.lua"), "filter()")
	changed := waitChange(t, fired)
	if !slices.Contains(changed, "src/filters/sort.lua") {
		t.Errorf("expected src/filters/sort.lua in %v", changed)
	}

	writeFile(t, filepath.Join(dir, "blockbuild.config.json"), "{}")
	changed = waitChange(t, fired)
	if !slices.Contains(changed, "blockbuild.config.json") {
		t.Errorf("expected config file in %v", changed)
	}
}

func TestWatcherNewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := startWatcher(t, Config{BaseDir: dir, Patterns: []string{"**/*.sh"}})

	sub := filepath.Join(dir, "filters")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Let the create event register the directory before writing into it.
	time.Sleep(2 * testDebounce)
	writeFile(t, filepath.Join(sub, "stamp.sh"), "filter")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-fired:
			if slices.Contains(changed, "filters/stamp.sh") {
				return
			}
		case <-deadline:
			t.Fatal("file in new directory was not observed")
		}
	}
}

func TestProjectConfig(t *testing.T) {
	t.Parallel()

	base := filepath.Join(string(filepath.Separator), "work", "pack")
	cfg := &config.Config{
		SrcPath:    filepath.Join(base, "src"),
		OutPath:    filepath.Join(base, "build", "out"),
		ProjectDir: base,
	}

	wcfg, err := ProjectConfig(cfg)
	if err != nil {
		t.Fatalf("ProjectConfig() error: %v", err)
	}
	if wcfg.BaseDir != base {
		t.Errorf("BaseDir = %q, want %q", wcfg.BaseDir, base)
	}
	for _, want := range []string{"src/**", ".blockbuild/modules/**", "blockbuild.config.{json,cue}"} {
		if !slices.Contains(wcfg.Patterns, want) {
			t.Errorf("Patterns = %v, missing %q", wcfg.Patterns, want)
		}
	}
	if !slices.Contains(wcfg.Ignore, "build/out/**") {
		t.Errorf("Ignore = %v, want outPath ignored", wcfg.Ignore)
	}

	cfg.SrcPath = filepath.Join(string(filepath.Separator), "elsewhere", "src")
	if _, err := ProjectConfig(cfg); !errors.Is(err, ErrOutsideProject) {
		t.Errorf("ProjectConfig() error = %v, want ErrOutsideProject", err)
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{".git/objects/ab/cd1234", true},
		{"sort.lua.swp", true},
		{"sort.lua.swo", true},
		{"backup~", true},
		{".DS_Store", true},
		{"src/packs/.DS_Store", true},
		{"src/filters/sort.lua", false},
		{"blockbuild.config.json", false},
		{".gitignore", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := matchAny(defaultIgnores, tt.path); got != tt.ignored {
				t.Errorf("matchAny(defaultIgnores, %q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu      sync.Mutex
		calls   int
		active  int
		overlap bool
	)
	firstCallDone := make(chan struct{})

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: testDebounce,
		OnChange: func(_ context.Context, _ []string) error {
			mu.Lock()
			calls++
			callNum := calls
			active++
			if active > 1 {
				overlap = true
			}
			mu.Unlock()

			if callNum == 1 {
				time.Sleep(300 * time.Millisecond)
				close(firstCallDone)
			}

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	writeFile(t, filepath.Join(dir, "first.lua"), "1")
	time.Sleep(2 * testDebounce)
	writeFile(t, filepath.Join(dir, "second.lua"), "2")

	select {
	case <-firstCallDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}
	time.Sleep(200 * time.Millisecond)

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("callbacks ran concurrently")
	}
	if calls > 2 {
		t.Errorf("expected at most 2 callback invocations, got %d", calls)
	}
}

func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "watch", cfg: Config{Patterns: []string{"[invalid"}}, want: "invalid watch pattern"},
		{name: "ignore", cfg: Config{Ignore: []string{"[invalid"}}, want: "invalid ignore pattern"},
		{name: "empty", cfg: Config{Patterns: []string{""}}, want: "invalid watch pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.cfg.BaseDir = t.TempDir()
			_, err := New(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir(), Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(testDebounce)

	err = w.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "Run called more than once") {
		t.Errorf("second Run() = %v, want double-run error", err)
	}

	cancel()
	if firstErr := <-errCh; firstErr != nil {
		t.Fatalf("first Run() returned error: %v", firstErr)
	}
}
