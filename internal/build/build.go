// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/extension"
	"github.com/fluffycraft/blockbuild/internal/filter"
	"github.com/fluffycraft/blockbuild/internal/fsutil"
	"github.com/fluffycraft/blockbuild/internal/issue"
	"github.com/fluffycraft/blockbuild/internal/luahost"
	"github.com/fluffycraft/blockbuild/internal/stdlib"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/sync/errgroup"
)

type (
	// Options configures a Builder. Zero values discard logs and send
	// script output to the process streams.
	Options struct {
		Logger *log.Logger
		Stdout io.Writer
		Stderr io.Writer
	}

	// Builder runs builds. A Builder holds no per-build state and may be
	// reused, for example across watch-mode rebuilds.
	Builder struct {
		logger *log.Logger
		stdout io.Writer
		stderr io.Writer
	}

	// Result summarizes a successful build.
	Result struct {
		// Invoked lists filter ids in invocation order.
		Invoked []string
		// Mirrored lists the development directories written.
		Mirrored []string
		// Artifact is the .mcaddon path when packaging.
		Artifact string
	}

	// session is the interpreter state of one build.
	session struct {
		host     *luahost.Host
		registry *filter.Registry
	}
)

// New creates a Builder.
func New(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{logger: logger, stdout: opts.Stdout, stderr: opts.Stderr}
}

// Build runs one build of the project described by bc:
//
//  1. every configured pack must exist under <srcPath>/packs;
//  2. filter discovery and the copy of <srcPath>/packs into outPath run
//     concurrently;
//  3. configured filters run sequentially in declared order, and the first
//     failure stops the build;
//  4. development builds are mirrored into com.mojang, packaged builds are
//     zipped into <outPath>/<packName>.mcaddon.
func (b *Builder) Build(ctx context.Context, bc *config.BuildContext) (*Result, error) {
	cfg := bc.Config
	if err := checkPacks(cfg); err != nil {
		return nil, err
	}

	var sess *session
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sess, err = b.discover(gctx, bc)
		return err
	})
	g.Go(func() error {
		return prepareOutput(gctx, cfg)
	})
	if err := g.Wait(); err != nil {
		if sess != nil {
			sess.close()
		}
		return nil, err
	}
	defer sess.close()

	b.logger.Debug("discovery complete", "filters", sess.registry.Len())

	res := &Result{}
	for _, inv := range cfg.Filters {
		if err := b.invoke(ctx, sess.registry, inv); err != nil {
			return nil, err
		}
		res.Invoked = append(res.Invoked, inv.ID)
	}

	if !bc.Flags.IsProduction() {
		res.Mirrored = b.mirror(ctx, cfg)
		return res, nil
	}
	if bc.Flags.Package {
		artifact, err := b.pack(ctx, cfg)
		if err != nil {
			return nil, err
		}
		res.Artifact = artifact
	}
	return res, nil
}

// Discover builds the filter registry without touching outPath or invoking
// anything. The returned entries are for inspection only; their main
// functions are unusable once Discover returns.
func (b *Builder) Discover(ctx context.Context, bc *config.BuildContext) (*filter.Registry, error) {
	sess, err := b.discover(ctx, bc)
	if err != nil {
		return nil, err
	}
	sess.close()
	return sess.registry, nil
}

// discover loads the extension namespaces and evaluates every filter on a
// fresh interpreter.
func (b *Builder) discover(ctx context.Context, bc *config.BuildContext) (*session, error) {
	host := luahost.New()

	surface := stdlib.New(bc, b.logger.WithPrefix("std"))
	var bindings *extension.Bindings
	if err := host.Do(ctx, func(L *lua.LState) error {
		bindings = extension.NewBindings(L, surface, bc)
		return nil
	}); err != nil {
		host.Close()
		return nil, err
	}

	namespaces, err := extension.DiscoverAndLoad(ctx, bc.Config, extension.NewLuaLoader(host, bindings), bindings)
	if err != nil {
		host.Close()
		return nil, err
	}
	b.logger.Debug("extensions loaded", "namespaces", len(namespaces))

	sources, err := filter.DiscoverFiles(bc.Config.SrcPath, bc.Config.ModulesDir())
	if err != nil {
		host.Close()
		return nil, issue.Uncaught(err)
	}

	registry, err := filter.Discover(ctx, sources, filter.Evaluators{
		filter.ExtLua:   filter.NewLuaEvaluator(host, bindings, namespaces),
		filter.ExtShell: filter.NewShellEvaluator(host, bc, namespaces, b.stdout, b.stderr),
	})
	if err != nil {
		host.Close()
		return nil, err
	}

	return &session{host: host, registry: registry}, nil
}

func (s *session) close() {
	s.host.Close()
}

// invoke runs one configured filter invocation.
func (b *Builder) invoke(ctx context.Context, reg *filter.Registry, inv config.FilterInvocation) error {
	entry, ok := reg.Get(inv.ID)
	if !ok {
		return issue.NewInternalError(issue.CodeInternalFilterNotFound,
			fmt.Sprintf("Cannot execute filter with id `%s` because it does not exist.", inv.ID), nil)
	}

	var args any
	validator, declared, err := entry.Options.Validator()
	if declared {
		if err != nil {
			return issue.NewRuntimeError(issue.CodeRuntimeArgumentsNoParse, entry.ID,
				"Filter arguments must implement a parse method.", err)
		}
		args, err = validator.Parse(ctx, inv.Arguments)
		if err != nil {
			return issue.NewRuntimeError(issue.CodeRuntimeArgumentsParseFailed, entry.ID,
				"Failed to parse filter arguments.", err)
		}
	}

	b.logger.Info("running filter", "id", entry.ID)
	if err := entry.Main(ctx, filter.Data{Args: args}); err != nil {
		return issue.NewRuntimeError(issue.CodeRuntimeMainFailed, entry.ID,
			"Filter main function failed.", err)
	}
	return nil
}

func checkPacks(cfg *config.Config) error {
	for _, p := range cfg.Packs {
		dir := cfg.PackSourceDir(p)
		if fsutil.DirExists(dir) {
			continue
		}

		code := issue.CodeInternalBPNotFound
		if p == config.PackResource {
			code = issue.CodeInternalRPNotFound
		}
		cause := issue.NewErrorContext().
			WithOperation("locate pack").
			WithResource(dir).
			WithSuggestion(fmt.Sprintf("Create %s or remove %q from packs in the config", dir, p)).
			BuildError()
		return issue.NewInternalError(code, fmt.Sprintf("%s pack directory not found.", p), cause)
	}
	return nil
}

// prepareOutput clears outPath and seeds it with <srcPath>/packs.
func prepareOutput(ctx context.Context, cfg *config.Config) error {
	if err := os.RemoveAll(cfg.OutPath); err != nil {
		return issue.NewInternalError(issue.CodeInternalOutputPreparation, "Failed to clear the output directory.", err)
	}
	if err := fsutil.CopyDir(ctx, cfg.PacksDir(), cfg.OutPath); err != nil {
		return issue.NewInternalError(issue.CodeInternalOutputPreparation, "Failed to copy packs to the output directory.", err)
	}
	return nil
}
