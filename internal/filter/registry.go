// SPDX-License-Identifier: MPL-2.0

package filter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/fluffycraft/blockbuild/internal/issue"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// filePattern matches every script under a filters directory.
const filePattern = "**/*.{lua,sh}"

type (
	// Evaluators maps a file extension to its backend.
	Evaluators map[string]Evaluator

	// Registry maps filter ids to entries for the lifetime of a build.
	Registry struct {
		entries map[string]*Entry
		order   []string
	}
)

// DiscoverFiles lists project filters (<srcPath>/filters) followed by the
// filters of each installed module (<modulesDir>/<name>/filters), modules
// and files in lexical order.
func DiscoverFiles(srcPath, modulesDir string) ([]Source, error) {
	sources, err := globFilters(filepath.Join(srcPath, DirName), ProjectNamespace)
	if err != nil {
		return nil, err
	}

	modules, err := os.ReadDir(modulesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sources, nil
		}
		return nil, fmt.Errorf("failed to read modules directory: %w", err)
	}

	for _, m := range modules {
		if !m.IsDir() {
			continue
		}
		found, err := globFilters(filepath.Join(modulesDir, m.Name(), DirName), m.Name())
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}

	return sources, nil
}

func globFilters(dir, namespace string) ([]Source, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), filePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", dir, err)
	}
	slices.Sort(matches)

	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		sources = append(sources, Source{
			ID:        ID(namespace, path),
			Namespace: namespace,
			Path:      path,
		})
	}
	return sources, nil
}

// Discover evaluates every source concurrently and registers the results in
// source order, so a duplicate id resolves to the last discovered file.
// The first failure aborts discovery; failures that are not already
// classified are reported as RT2 tagged with the filter id.
func Discover(ctx context.Context, sources []Source, evaluators Evaluators) (*Registry, error) {
	entries := make([]*Entry, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			eval, ok := evaluators[filepath.Ext(src.Path)]
			if !ok {
				return evalError(src, fmt.Errorf("no backend for %s files", filepath.Ext(src.Path)))
			}

			code, err := os.ReadFile(src.Path)
			if err != nil {
				return evalError(src, err)
			}

			entry, err := eval.Evaluate(gctx, src, code)
			if err != nil {
				return evalError(src, err)
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := NewRegistry()
	for _, e := range entries {
		r.Add(e)
	}
	return r, nil
}

func evalError(src Source, err error) error {
	var classified *issue.Error
	if errors.As(err, &classified) {
		return err
	}
	return issue.NewRuntimeError(issue.CodeRuntimeEvalFilter, src.ID,
		fmt.Sprintf("Failed to evaluate filter %s.", src.Path), err)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Entry{}}
}

// Add registers e, replacing any entry with the same id.
func (r *Registry) Add(e *Entry) {
	if _, exists := r.entries[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.entries[e.ID] = e
}

// Get looks up an entry by id.
func (r *Registry) Get(id string) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Len returns the number of registered ids.
func (r *Registry) Len() int { return len(r.order) }

// Entries returns the registered entries in first-registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}
