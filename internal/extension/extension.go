// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/issue"
	"github.com/fluffycraft/blockbuild/internal/luahost"
	"github.com/fluffycraft/blockbuild/internal/stdlib"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/sync/errgroup"
)

const (
	// FileName is the entry file of an extension.
	FileName = "api-extension.lua"
	// ProjectNamespace is the namespace of the project's own extension.
	ProjectNamespace = "project"
)

// ErrNotFactory is returned when an extension does not return a function.
var ErrNotFactory = errors.New("api extension must return a factory function")

type (
	// Source is one discovered extension file.
	Source struct {
		Namespace string
		Path      string
	}

	// Namespaces maps namespace names to their capability values. It always
	// holds the std table under stdlib.Namespace.
	Namespaces map[string]lua.LValue

	// Loadable turns extension source code into a capability value.
	Loadable interface {
		Load(ctx context.Context, src Source, code []byte) (lua.LValue, error)
	}

	// LuaLoader evaluates extensions on the build's interpreter.
	LuaLoader struct {
		host     *luahost.Host
		bindings *Bindings
	}
)

// Discover lists the project extension (<srcPath>/api-extension.lua) and
// every installed module extension (<modulesDir>/<name>/api-extension.lua),
// modules in lexical order. A missing modules directory yields no modules.
func Discover(srcPath, modulesDir string) ([]Source, error) {
	var sources []Source

	projectFile := filepath.Join(srcPath, FileName)
	if isFile(projectFile) {
		sources = append(sources, Source{Namespace: ProjectNamespace, Path: projectFile})
	}

	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sources, nil
		}
		return nil, fmt.Errorf("failed to read modules directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		file := filepath.Join(modulesDir, entry.Name(), FileName)
		if isFile(file) {
			sources = append(sources, Source{Namespace: entry.Name(), Path: file})
		}
	}

	return sources, nil
}

// NewLuaLoader creates a loader passing bindings to every factory.
func NewLuaLoader(host *luahost.Host, bindings *Bindings) *LuaLoader {
	return &LuaLoader{host: host, bindings: bindings}
}

// Load runs the extension in an isolated environment and calls the factory
// it returns with {context, std}.
func (l *LuaLoader) Load(ctx context.Context, src Source, code []byte) (lua.LValue, error) {
	var capability lua.LValue = lua.LNil
	err := l.host.Do(ctx, func(L *lua.LState) error {
		factory, err := luahost.Eval(L, code, src.Path, luahost.NewEnv(L))
		if err != nil {
			return err
		}
		if !luahost.IsCallable(factory) {
			return fmt.Errorf("%w, got %s", ErrNotFactory, factory.Type())
		}

		capability, err = luahost.Call(L, factory, l.bindings.Deps(L))
		return err
	})
	return capability, err
}

// LoadAll loads every source concurrently. The first failure is returned as
// a runtime error tagged with the namespace; no partial result is kept.
// Every namespace must be unique and std is reserved, so a module directory
// named like the project namespace fails before anything is loaded.
func LoadAll(ctx context.Context, loader Loadable, bindings *Bindings, sources []Source) (Namespaces, error) {
	if err := checkNamespaces(sources); err != nil {
		return nil, err
	}

	namespaces := Namespaces{stdlib.Namespace: bindings.Std}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			code, err := os.ReadFile(src.Path)
			if err != nil {
				return loadError(src, err)
			}

			capability, err := loader.Load(gctx, src, code)
			if err != nil {
				return loadError(src, err)
			}

			mu.Lock()
			namespaces[src.Namespace] = capability
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return namespaces, nil
}

// DiscoverAndLoad discovers the extensions of cfg and loads them.
func DiscoverAndLoad(ctx context.Context, cfg *config.Config, loader Loadable, bindings *Bindings) (Namespaces, error) {
	sources, err := Discover(cfg.SrcPath, cfg.ModulesDir())
	if err != nil {
		return nil, err
	}
	return LoadAll(ctx, loader, bindings, sources)
}

func checkNamespaces(sources []Source) error {
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if src.Namespace == stdlib.Namespace {
			return loadError(src, fmt.Errorf("namespace %q is reserved", stdlib.Namespace))
		}
		if prev, dup := seen[src.Namespace]; dup {
			return loadError(src, fmt.Errorf("namespace %q is already provided by %s", src.Namespace, prev))
		}
		seen[src.Namespace] = src.Path
	}
	return nil
}

func loadError(src Source, err error) error {
	return issue.NewRuntimeError(issue.CodeRuntimeExtensionLoad, src.Namespace,
		fmt.Sprintf("Failed to load API extension %s.", src.Path), err)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
