// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/luahost"
	"github.com/fluffycraft/blockbuild/internal/stdlib"

	lua "github.com/yuin/gopher-lua"
)

// Bindings are the Lua tables every script of a build shares: the std
// surface and the build context. They are created once, under the host lock.
type Bindings struct {
	Std        *lua.LTable
	BuildFlags *lua.LTable
	Config     *lua.LTable
}

// NewBindings converts the build context and surface into Lua tables.
func NewBindings(L *lua.LState, surface *stdlib.Surface, bc *config.BuildContext) *Bindings {
	flags := L.NewTable()
	flags.RawSetString("production", lua.LBool(bc.Flags.Production))
	flags.RawSetString("package", lua.LBool(bc.Flags.Package))
	flags.RawSetString("watch", lua.LBool(bc.Flags.Watch))

	cfg := L.NewTable()
	cfg.RawSetString("packName", lua.LString(bc.Config.PackName))
	cfg.RawSetString("srcPath", lua.LString(bc.Config.SrcPath))
	cfg.RawSetString("outPath", lua.LString(bc.Config.OutPath))
	cfg.RawSetString("comMojangPath", lua.LString(bc.Config.ComMojangPath))

	packs := L.CreateTable(len(bc.Config.Packs), 0)
	for _, p := range bc.Config.Packs {
		packs.Append(lua.LString(p))
	}
	cfg.RawSetString("packs", packs)

	filters := L.CreateTable(len(bc.Config.Filters), 0)
	for _, f := range bc.Config.Filters {
		entry := L.NewTable()
		entry.RawSetString("id", lua.LString(f.ID))
		if f.Arguments != nil {
			entry.RawSetString("arguments", luahost.ToLua(L, f.Arguments))
		}
		filters.Append(entry)
	}
	cfg.RawSetString("filters", filters)

	return &Bindings{
		Std:        surface.Table(L),
		BuildFlags: flags,
		Config:     cfg,
	}
}

// Context returns a fresh {buildFlags, config} table pointing at the shared
// tables.
func (b *Bindings) Context(L *lua.LState) *lua.LTable {
	ctx := L.NewTable()
	ctx.RawSetString("buildFlags", b.BuildFlags)
	ctx.RawSetString("config", b.Config)
	return ctx
}

// Deps is the argument passed to extension factories: {context, std}.
func (b *Bindings) Deps(L *lua.LState) *lua.LTable {
	deps := L.NewTable()
	deps.RawSetString("context", b.Context(L))
	deps.RawSetString("std", b.Std)
	return deps
}
