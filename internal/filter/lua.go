// SPDX-License-Identifier: MPL-2.0

package filter

import (
	"context"
	"fmt"

	"github.com/fluffycraft/blockbuild/internal/extension"
	"github.com/fluffycraft/blockbuild/internal/issue"
	"github.com/fluffycraft/blockbuild/internal/luahost"

	lua "github.com/yuin/gopher-lua"
)

// thisKey is the api alias for the filter's own namespace.
const thisKey = "$this"

type (
	// LuaEvaluator runs .lua filters on the build's interpreter.
	LuaEvaluator struct {
		host       *luahost.Host
		bindings   *extension.Bindings
		namespaces extension.Namespaces
	}

	// registration captures the single filter() call of a script.
	registration struct {
		called  bool
		options lua.LValue
	}

	// luaValidator adapts an arguments table with a parse method.
	luaValidator struct {
		host  *luahost.Host
		table lua.LValue
	}
)

// NewLuaEvaluator creates the Lua backend.
func NewLuaEvaluator(host *luahost.Host, bindings *extension.Bindings, namespaces extension.Namespaces) *LuaEvaluator {
	return &LuaEvaluator{host: host, bindings: bindings, namespaces: namespaces}
}

// Evaluate runs the declare phase of a Lua filter.
//
// The script sees `filter`, `main`, `context` and `api` as globals of its own
// environment. It must call filter(options) exactly once; main defaults to a
// function failing with ErrMainNotDefined.
func (e *LuaEvaluator) Evaluate(ctx context.Context, src Source, code []byte) (*Entry, error) {
	var entry *Entry
	err := e.host.Do(ctx, func(L *lua.LState) error {
		reg := &registration{}
		defaultMain := L.NewFunction(func(L *lua.LState) int {
			L.RaiseError("%s", ErrMainNotDefined)
			return 0
		})

		env := luahost.NewEnv(L)
		env.RawSetString("filter", L.NewFunction(reg.declare))
		env.RawSetString("main", defaultMain)
		env.RawSetString("context", e.contextTable(L, src.Namespace))
		env.RawSetString("api", e.apiTable(L, src.Namespace))

		if _, err := luahost.Eval(L, code, src.Path, env); err != nil {
			return err
		}

		opts, err := reg.definitionOptions(L, e.host)
		if err != nil {
			return issue.NewRuntimeError(issue.CodeRuntimeDefinitionOptions, src.ID, "Invalid definition options.", err)
		}

		entry = &Entry{
			ID:        src.ID,
			Namespace: src.Namespace,
			Path:      src.Path,
			Main:      e.mainFunc(env.RawGetString("main"), defaultMain),
			Options:   opts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *LuaEvaluator) contextTable(L *lua.LState, namespace string) *lua.LTable {
	ctx := e.bindings.Context(L)
	ctx.RawSetString("namespace", lua.LString(namespace))
	return ctx
}

// apiTable exposes every namespace plus $this, the filter's own namespace
// (an empty table when the namespace has no extension).
func (e *LuaEvaluator) apiTable(L *lua.LState, namespace string) *lua.LTable {
	api := L.CreateTable(0, len(e.namespaces)+1)
	for name, capability := range e.namespaces {
		api.RawSetString(name, capability)
	}
	if own, ok := e.namespaces[namespace]; ok {
		api.RawSetString(thisKey, own)
	} else {
		api.RawSetString(thisKey, L.NewTable())
	}
	return api
}

// mainFunc wraps the script's main for invocation outside the host lock.
func (e *LuaEvaluator) mainFunc(fn, defaultMain lua.LValue) MainFunc {
	return func(ctx context.Context, data Data) error {
		if fn == defaultMain {
			return ErrMainNotDefined
		}
		return e.host.Do(ctx, func(L *lua.LState) error {
			arg := L.NewTable()
			arg.RawSetString("args", luahost.ToLua(L, data.Args))
			_, err := luahost.Call(L, fn, arg)
			return err
		})
	}
}

func (r *registration) declare(L *lua.LState) int {
	if r.called {
		L.RaiseError("filter() may only be called once")
	}
	r.called = true
	r.options = L.Get(1)
	return 0
}

// definitionOptions validates what filter() received. No argument means
// empty options; anything but a table is rejected.
func (r *registration) definitionOptions(L *lua.LState, host *luahost.Host) (DefinitionOptions, error) {
	if !r.called {
		return DefinitionOptions{}, ErrNotDeclared
	}

	switch opts := r.options.(type) {
	case *lua.LNilType:
		return DefinitionOptions{}, nil
	case *lua.LTable:
		args, err := luahost.GetField(L, opts, "arguments")
		if err != nil {
			return DefinitionOptions{}, err
		}
		if args == lua.LNil {
			return DefinitionOptions{}, nil
		}
		if tbl, ok := args.(*lua.LTable); ok {
			parse, err := luahost.GetField(L, tbl, "parse")
			if err != nil {
				return DefinitionOptions{}, err
			}
			if luahost.IsCallable(parse) {
				return DefinitionOptions{Arguments: &luaValidator{host: host, table: tbl}}, nil
			}
		}
		// kept opaque; rejected when the filter is invoked
		return DefinitionOptions{Arguments: luahost.FromLua(args)}, nil
	default:
		return DefinitionOptions{}, fmt.Errorf("filter() expects a table, got %s", r.options.Type())
	}
}

// Parse calls arguments:parse(raw). The Lua result is handed to main
// unchanged. Cancelling ctx interrupts a running parse.
func (v *luaValidator) Parse(ctx context.Context, raw any) (any, error) {
	var out lua.LValue
	err := v.host.Do(ctx, func(L *lua.LState) error {
		parse, err := luahost.GetField(L, v.table, "parse")
		if err != nil {
			return err
		}
		out, err = luahost.Call(L, parse, v.table, luahost.ToLua(L, raw))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
