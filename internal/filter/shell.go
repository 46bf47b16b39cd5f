// SPDX-License-Identifier: MPL-2.0

package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/extension"
	"github.com/fluffycraft/blockbuild/internal/issue"
	"github.com/fluffycraft/blockbuild/internal/luahost"
	"github.com/fluffycraft/blockbuild/internal/schema"

	"github.com/spf13/pflag"
	lua "github.com/yuin/gopher-lua"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	builtinFilter = "filter"
	builtinAPI    = "api"
	// builtinNoMain backs the pre-seeded main function.
	builtinNoMain = "__blockbuild_no_main"

	// defaultMainDecl is run before the script so main always exists.
	defaultMainDecl = "main() { " + builtinNoMain + "; }\n"
)

type (
	// ShellEvaluator runs .sh filters in the embedded mvdan/sh interpreter.
	ShellEvaluator struct {
		host       *luahost.Host
		build      *config.BuildContext
		namespaces extension.Namespaces
		stdout     io.Writer
		stderr     io.Writer
	}

	// shellFilter is the interpreter state of one shell filter. The runner
	// is kept after the declare phase so main can be invoked later.
	shellFilter struct {
		eval      *ShellEvaluator
		src       Source
		runner    *interp.Runner
		mu        sync.Mutex
		declared  bool
		validator Validator
	}
)

// NewShellEvaluator creates the shell backend. stdout/stderr receive the
// scripts' output; nil means the process streams.
func NewShellEvaluator(host *luahost.Host, bc *config.BuildContext, namespaces extension.Namespaces, stdout, stderr io.Writer) *ShellEvaluator {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ShellEvaluator{host: host, build: bc, namespaces: namespaces, stdout: stdout, stderr: stderr}
}

// Evaluate runs the declare phase of a shell filter. The script registers
// itself with the `filter [--arguments schema.cue]` builtin and defines
// main() { ... }.
func (e *ShellEvaluator) Evaluate(ctx context.Context, src Source, code []byte) (*Entry, error) {
	prog, err := syntax.NewParser().Parse(bytes.NewReader(code), src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	seed, err := syntax.NewParser().Parse(strings.NewReader(defaultMainDecl), "main")
	if err != nil {
		return nil, fmt.Errorf("failed to parse default main: %w", err)
	}

	sf := &shellFilter{eval: e, src: src}
	runner, err := interp.New(
		interp.Dir(e.build.Config.ProjectDir),
		interp.Env(expand.ListEnviron(append(os.Environ(), e.environ(src.Namespace)...)...)),
		interp.StdIO(nil, e.stdout, e.stderr),
		interp.ExecHandlers(sf.execHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	sf.runner = runner

	if err := runner.Run(ctx, seed); err != nil {
		return nil, fmt.Errorf("failed to declare default main: %w", err)
	}
	if err := runner.Run(ctx, prog); err != nil {
		return nil, fmt.Errorf("script execution failed: %w", exitError(err))
	}

	if !sf.declared {
		return nil, issue.NewRuntimeError(issue.CodeRuntimeDefinitionOptions, src.ID, "Invalid definition options.", ErrNotDeclared)
	}

	opts := DefinitionOptions{}
	if sf.validator != nil {
		opts.Arguments = sf.validator
	}
	return &Entry{
		ID:        src.ID,
		Namespace: src.Namespace,
		Path:      src.Path,
		Main:      sf.main,
		Options:   opts,
	}, nil
}

// environ exposes the build context to the script.
func (e *ShellEvaluator) environ(namespace string) []string {
	cfg := e.build.Config
	return []string{
		"BLOCKBUILD_NAMESPACE=" + namespace,
		"BLOCKBUILD_PRODUCTION=" + strconv.FormatBool(e.build.Flags.IsProduction()),
		"BLOCKBUILD_PACKAGE=" + strconv.FormatBool(e.build.Flags.Package),
		"BLOCKBUILD_PACK_NAME=" + cfg.PackName,
		"BLOCKBUILD_SRC_PATH=" + cfg.SrcPath,
		"BLOCKBUILD_OUT_PATH=" + cfg.OutPath,
	}
}

// main runs `main '<args as JSON>'` on the filter's runner.
func (sf *shellFilter) main(ctx context.Context, data Data) error {
	args, err := json.Marshal(data.Args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}
	quoted, err := syntax.Quote(string(args), syntax.LangBash)
	if err != nil {
		return fmt.Errorf("failed to quote arguments: %w", err)
	}
	call, err := syntax.NewParser().Parse(strings.NewReader("main "+quoted+"\n"), sf.src.Path)
	if err != nil {
		return fmt.Errorf("failed to build main call: %w", err)
	}

	sf.mu.Lock()
	defer sf.mu.Unlock()

	return exitError(sf.runner.Run(ctx, call))
}

func (sf *shellFilter) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return next(ctx, args)
		}
		switch args[0] {
		case builtinNoMain:
			return ErrMainNotDefined
		case builtinFilter:
			return sf.declare(args[1:])
		case builtinAPI:
			return sf.callAPI(ctx, args[1:])
		default:
			return next(ctx, args)
		}
	}
}

// declare implements `filter [--arguments schema.cue]`. The schema path is
// relative to the filter file.
func (sf *shellFilter) declare(args []string) error {
	if sf.declared {
		return errors.New("filter may only be called once")
	}

	fset := pflag.NewFlagSet(builtinFilter, pflag.ContinueOnError)
	fset.SetOutput(io.Discard)
	schemaPath := fset.String("arguments", "", "CUE schema for the filter arguments")
	if err := fset.Parse(args); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if fset.NArg() > 0 {
		return fmt.Errorf("filter: unexpected arguments %v", fset.Args())
	}

	if *schemaPath != "" {
		p := *schemaPath
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(sf.src.Path), p)
		}
		v, err := schema.CompileFile(p)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		sf.validator = schemaArguments{v}
	}
	sf.declared = true
	return nil
}

// schemaArguments adapts a CUE schema declared with --arguments.
type schemaArguments struct {
	*schema.Validator
}

func (a schemaArguments) Parse(ctx context.Context, raw any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.Validator.Parse(raw)
}

// callAPI implements `api <namespace> <member> [args...]`. A function member
// is called with the string arguments; its result (or a plain member) is
// written to stdout, strings raw and everything else as JSON.
func (sf *shellFilter) callAPI(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: api <namespace> <member> [args...]")
	}
	nsName, member := args[0], args[1]
	if nsName == thisKey || nsName == "this" {
		nsName = sf.src.Namespace
	}
	capability, ok := sf.eval.namespaces[nsName]
	if !ok {
		return fmt.Errorf("api: unknown namespace %q", args[0])
	}

	var out []byte
	err := sf.eval.host.Do(ctx, func(L *lua.LState) error {
		value, err := luahost.GetField(L, capability, member)
		if err != nil {
			return err
		}
		if luahost.IsCallable(value) {
			callArgs := make([]lua.LValue, 0, len(args)-2)
			for _, a := range args[2:] {
				callArgs = append(callArgs, lua.LString(a))
			}
			ret, err := luahost.Call(L, value, callArgs...)
			if err != nil {
				return err
			}
			value = ret
		}

		switch v := value.(type) {
		case *lua.LNilType:
			return nil
		case lua.LString:
			out = []byte(v)
		default:
			data, err := luahost.ToData(v)
			if err != nil {
				return err
			}
			if out, err = json.Marshal(data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("api %s %s: %w", nsName, member, err)
	}

	if len(out) > 0 {
		hc := interp.HandlerCtx(ctx)
		if _, err := fmt.Fprintf(hc.Stdout, "%s\n", out); err != nil {
			return err
		}
	}
	return nil
}

// exitError turns a non-zero exit status into a readable error.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		return fmt.Errorf("exited with status %d", uint8(status))
	}
	return err
}
