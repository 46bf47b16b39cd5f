// SPDX-License-Identifier: MPL-2.0

package stdlib

import (
	"io"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/config"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"
)

// Namespace is the key the surface is registered under.
const Namespace = "std"

const (
	// CompilerModeDev is used for development builds.
	CompilerModeDev CompilerMode = iota
	// CompilerModeProd is used for production and packaged builds.
	CompilerModeProd
)

type (
	// CompilerMode mirrors std.CompilerMode.
	CompilerMode int

	// Surface is the per-build standard library exposed to scripts.
	Surface struct {
		HasBP bool
		HasRP bool
		Mode  CompilerMode

		logger *log.Logger
	}
)

func (m CompilerMode) String() string {
	if m == CompilerModeProd {
		return "PROD"
	}
	return "DEV"
}

// New derives the surface from the build context. logger receives std.log
// output; nil discards it.
func New(bc *config.BuildContext, logger *log.Logger) *Surface {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Surface{
		HasBP:  bc.Config.HasPack(config.PackBehavior),
		HasRP:  bc.Config.HasPack(config.PackResource),
		Mode:   CompilerModeDev,
		logger: logger,
	}
	if bc.Flags.IsProduction() {
		s.Mode = CompilerModeProd
	}
	return s
}

// Table builds the std table inside L. Call it once per build, under the
// host lock.
func (s *Surface) Table(L *lua.LState) *lua.LTable {
	std := L.NewTable()

	std.RawSetString("hasBP", lua.LBool(s.HasBP))
	std.RawSetString("hasRP", lua.LBool(s.HasRP))
	std.RawSetString("compilerMode", lua.LNumber(s.Mode))

	modes := L.NewTable()
	modes.RawSetString("DEV", lua.LNumber(CompilerModeDev))
	modes.RawSetString("PROD", lua.LNumber(CompilerModeProd))
	std.RawSetString("CompilerMode", modes)

	std.RawSetString("log", L.NewFunction(s.luaLog))
	std.RawSetString("glob", L.NewFunction(luaGlob))
	std.RawSetString("schema", L.NewFunction(luaSchema))
	std.RawSetString("fs", fsTable(L))
	std.RawSetString("path", pathTable(L))
	std.RawSetString("json", jsonTable(L))
	std.RawSetString("yaml", yamlTable(L))
	std.RawSetString("toml", tomlTable(L))

	return std
}

// luaLog prints every argument space-separated.
func (s *Surface) luaLog(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	s.logger.Info(strings.Join(parts, " "))
	return 0
}
