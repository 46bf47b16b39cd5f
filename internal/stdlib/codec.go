// SPDX-License-Identifier: MPL-2.0

package stdlib

import (
	"encoding/json"

	"github.com/fluffycraft/blockbuild/internal/luahost"

	"github.com/pelletier/go-toml/v2"
	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// codec is one of std.json, std.yaml, std.toml.
type codec struct {
	name      string
	marshal   func(v any, pretty bool) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var (
	jsonCodec = codec{
		name: "json",
		marshal: func(v any, pretty bool) ([]byte, error) {
			if pretty {
				return json.MarshalIndent(v, "", "  ")
			}
			return json.Marshal(v)
		},
		unmarshal: json.Unmarshal,
	}
	yamlCodec = codec{
		name:      "yaml",
		marshal:   func(v any, _ bool) ([]byte, error) { return yaml.Marshal(v) },
		unmarshal: yaml.Unmarshal,
	}
	tomlCodec = codec{
		name:      "toml",
		marshal:   func(v any, _ bool) ([]byte, error) { return toml.Marshal(v) },
		unmarshal: toml.Unmarshal,
	}
)

func jsonTable(L *lua.LState) *lua.LTable { return jsonCodec.table(L) }
func yamlTable(L *lua.LState) *lua.LTable { return yamlCodec.table(L) }
func tomlTable(L *lua.LState) *lua.LTable { return tomlCodec.table(L) }

func (c codec) table(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"encode": c.encode,
		"decode": c.decode,
	})
}

// encode(value [, pretty]) -> string
func (c codec) encode(L *lua.LState) int {
	data, err := luahost.ToData(L.CheckAny(1))
	if err != nil {
		L.RaiseError("%s.encode: %v", c.name, err)
	}
	out, err := c.marshal(data, L.OptBool(2, false))
	if err != nil {
		L.RaiseError("%s.encode: %v", c.name, err)
	}
	L.Push(lua.LString(out))
	return 1
}

// decode(text) -> value
func (c codec) decode(L *lua.LState) int {
	var out any
	if err := c.unmarshal([]byte(L.CheckString(1)), &out); err != nil {
		L.RaiseError("%s.decode: %v", c.name, err)
	}
	L.Push(luahost.ToLua(L, out))
	return 1
}
