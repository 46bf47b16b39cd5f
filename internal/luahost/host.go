// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("lua host closed")

// Host owns the single interpreter of a build. Every interaction with Lua
// values goes through Do, which serializes callers; Go functions invoked from
// Lua already run inside Do and must not call it again.
type Host struct {
	mu     sync.Mutex
	state  *lua.LState
	closed bool
}

// New creates a host with the Lua standard libraries opened.
func New() *Host {
	return &Host{state: lua.NewState()}
}

// Do runs fn with exclusive access to the interpreter. ctx is attached to the
// state for the duration of the call so long-running scripts observe
// cancellation.
func (h *Host) Do(ctx context.Context, fn func(L *lua.LState) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.state.SetContext(ctx)
	defer h.state.RemoveContext()

	return fn(h.state)
}

// Close releases the interpreter. It is safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.state.Close()
}

// NewEnv returns a fresh global environment for one script. Reads fall
// through to the interpreter's base globals; writes stay in the returned
// table.
func NewEnv(L *lua.LState) *lua.LTable {
	env := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", L.G.Global)
	L.SetMetatable(env, mt)
	return env
}

// Eval compiles src as chunk name, runs it with env as its globals and
// returns the chunk's first return value (LNil when it returns nothing).
func Eval(L *lua.LState, src []byte, name string, env *lua.LTable) (lua.LValue, error) {
	fn, err := L.Load(bytes.NewReader(src), name)
	if err != nil {
		return lua.LNil, fmt.Errorf("compile %s: %w", name, err)
	}
	fn.Env = env

	return Call(L, fn)
}

// Call invokes fn in protected mode and returns its first result.
func Call(L *lua.LState, fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("attempt to call a %s value", fn.Type())
	}

	top := L.GetTop()
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		L.SetTop(top)
		return lua.LNil, &ScriptError{Message: errorMessage(err), Cause: err}
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// IsCallable reports whether v can be invoked with Call.
func IsCallable(v lua.LValue) bool {
	return v.Type() == lua.LTFunction
}

// GetField reads v[key] in protected mode, so __index metamethods and
// non-table values raise errors instead of panicking.
func GetField(L *lua.LState, v lua.LValue, key string) (lua.LValue, error) {
	if tbl, ok := v.(*lua.LTable); ok && L.GetMetatable(tbl) == lua.LNil {
		return tbl.RawGetString(key), nil
	}
	getter := L.NewFunction(func(L *lua.LState) int {
		L.Push(L.GetField(L.Get(1), key))
		return 1
	})
	return Call(L, getter, v)
}
