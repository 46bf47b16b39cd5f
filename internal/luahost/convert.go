// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ToLua converts a Go value decoded from JSON/YAML/TOML/CUE into a Lua value.
// Maps become tables with string keys, slices become 1-based arrays.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return lua.LString(x.String())
		}
		return lua.LNumber(f)
	case time.Time:
		return lua.LString(x.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return lua.LString(x.String())
	case []any:
		tbl := L.CreateTable(len(x), 0)
		for _, item := range x {
			tbl.Append(ToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.CreateTable(0, len(x))
		for k, item := range x {
			tbl.RawSetString(k, ToLua(L, item))
		}
		return tbl
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		tbl := L.CreateTable(rv.Len(), 0)
		for i := range rv.Len() {
			tbl.Append(ToLua(L, rv.Index(i).Interface()))
		}
		return tbl
	case reflect.Map:
		tbl := L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			tbl.RawSetString(fmt.Sprint(iter.Key().Interface()), ToLua(L, iter.Value().Interface()))
		}
		return tbl
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return lua.LNumber(rv.Convert(reflect.TypeFor[float64]()).Float())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return lua.LNil
		}
		return ToLua(L, rv.Elem().Interface())
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// FromLua converts a Lua value into plain Go data. Tables whose keys are
// exactly 1..n become []any, other tables map[string]any. Integral numbers
// become int64. Functions and userdata are returned as-is.
func FromLua(v lua.LValue) any {
	return fromLua(v, map[*lua.LTable]bool{})
}

func fromLua(v lua.LValue, seen map[*lua.LTable]bool) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LString:
		return string(x)
	case lua.LNumber:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case *lua.LTable:
		if seen[x] {
			return nil
		}
		seen[x] = true
		defer delete(seen, x)

		if n := x.Len(); n > 0 && isArray(x, n) {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, fromLua(x.RawGetInt(i), seen))
			}
			return arr
		}
		m := map[string]any{}
		x.ForEach(func(k, item lua.LValue) {
			m[k.String()] = fromLua(item, seen)
		})
		return m
	default:
		return v
	}
}

func isArray(tbl *lua.LTable, n int) bool {
	count := 0
	ok := true
	tbl.ForEach(func(k, _ lua.LValue) {
		count++
		num, isNum := k.(lua.LNumber)
		if !isNum || float64(num) != math.Trunc(float64(num)) || num < 1 || int(num) > n {
			ok = false
		}
	})
	return ok && count == n
}

// ToData is FromLua for values headed to an encoder: functions, userdata and
// threads are rejected instead of passed through.
func ToData(v lua.LValue) (any, error) {
	out := FromLua(v)
	if err := checkPlain(out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkPlain(v any) error {
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if err := checkPlain(item); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, item := range x {
			if err := checkPlain(item); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	case lua.LValue:
		return fmt.Errorf("cannot encode a %s value", x.Type())
	}
	return nil
}
