// SPDX-License-Identifier: MPL-2.0

package stdlib

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fluffycraft/blockbuild/internal/fsutil"
	"github.com/fluffycraft/blockbuild/internal/luahost"
	"github.com/fluffycraft/blockbuild/internal/schema"

	"github.com/bmatcuk/doublestar/v4"
	lua "github.com/yuin/gopher-lua"
)

func fsTable(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"read":   fsRead,
		"write":  fsWrite,
		"append": fsAppend,
		"exists": fsExists,
		"mkdir":  fsMkdir,
		"remove": fsRemove,
		"list":   fsList,
		"copy":   fsCopy,
	})
}

func pathTable(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"join": pathJoin,
		"base": func(L *lua.LState) int {
			L.Push(lua.LString(filepath.Base(L.CheckString(1))))
			return 1
		},
		"dir": func(L *lua.LState) int {
			L.Push(lua.LString(filepath.Dir(L.CheckString(1))))
			return 1
		},
		"ext": func(L *lua.LState) int {
			L.Push(lua.LString(filepath.Ext(L.CheckString(1))))
			return 1
		},
		"rel": pathRel,
		"abs": pathAbs,
	})
}

func fsRead(L *lua.LState) int {
	data, err := os.ReadFile(L.CheckString(1))
	if err != nil {
		L.RaiseError("fs.read: %v", err)
	}
	L.Push(lua.LString(data))
	return 1
}

func fsWrite(L *lua.LState) int {
	path := L.CheckString(1)
	data := L.CheckString(2)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		L.RaiseError("fs.write: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		L.RaiseError("fs.write: %v", err)
	}
	return 0
}

func fsAppend(L *lua.LState) int {
	path := L.CheckString(1)
	data := L.CheckString(2)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		L.RaiseError("fs.append: %v", err)
	}
	_, werr := f.WriteString(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		L.RaiseError("fs.append: %v", err)
	}
	return 0
}

func fsExists(L *lua.LState) int {
	_, err := os.Stat(L.CheckString(1))
	L.Push(lua.LBool(err == nil))
	return 1
}

func fsMkdir(L *lua.LState) int {
	if err := os.MkdirAll(L.CheckString(1), 0o755); err != nil {
		L.RaiseError("fs.mkdir: %v", err)
	}
	return 0
}

func fsRemove(L *lua.LState) int {
	if err := os.RemoveAll(L.CheckString(1)); err != nil {
		L.RaiseError("fs.remove: %v", err)
	}
	return 0
}

// fsList returns the entry names of a directory in lexical order.
func fsList(L *lua.LState) int {
	entries, err := os.ReadDir(L.CheckString(1))
	if err != nil {
		L.RaiseError("fs.list: %v", err)
	}
	tbl := L.CreateTable(len(entries), 0)
	for _, e := range entries {
		tbl.Append(lua.LString(e.Name()))
	}
	L.Push(tbl)
	return 1
}

func fsCopy(L *lua.LState) int {
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fsutil.Copy(ctx, L.CheckString(1), L.CheckString(2)); err != nil {
		L.RaiseError("fs.copy: %v", err)
	}
	return 0
}

func pathJoin(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.CheckString(i))
	}
	L.Push(lua.LString(filepath.Join(parts...)))
	return 1
}

func pathRel(L *lua.LState) int {
	rel, err := filepath.Rel(L.CheckString(1), L.CheckString(2))
	if err != nil {
		L.RaiseError("path.rel: %v", err)
	}
	L.Push(lua.LString(rel))
	return 1
}

func pathAbs(L *lua.LState) int {
	abs, err := filepath.Abs(L.CheckString(1))
	if err != nil {
		L.RaiseError("path.abs: %v", err)
	}
	L.Push(lua.LString(abs))
	return 1
}

// luaGlob matches pattern with doublestar syntax. With a root the results
// are relative to it, otherwise they are paths as matched.
func luaGlob(L *lua.LState) int {
	pattern := L.CheckString(1)
	root := L.OptString(2, "")

	var (
		matches []string
		err     error
	)
	if root != "" {
		matches, err = doublestar.Glob(os.DirFS(root), filepath.ToSlash(pattern))
	} else {
		matches, err = doublestar.FilepathGlob(pattern)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		L.RaiseError("glob: %v", err)
	}

	tbl := L.CreateTable(len(matches), 0)
	for _, m := range matches {
		tbl.Append(lua.LString(filepath.FromSlash(m)))
	}
	L.Push(tbl)
	return 1
}

// luaSchema compiles CUE source into a validator table with a
// parse(self, data) method.
func luaSchema(L *lua.LState) int {
	src := L.CheckString(1)
	name := L.OptString(2, "std.schema")

	v, err := schema.Compile([]byte(src), name)
	if err != nil {
		L.RaiseError("schema: %v", err)
	}

	tbl := L.NewTable()
	tbl.RawSetString("parse", L.NewFunction(func(L *lua.LState) int {
		raw, err := luahost.ToData(L.Get(2))
		if err != nil {
			L.RaiseError("%v", err)
		}
		out, err := v.Parse(raw)
		if err != nil {
			L.RaiseError("%v", err)
		}
		L.Push(luahost.ToLua(L, out))
		return 1
	}))
	L.Push(tbl)
	return 1
}
