// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"errors"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ScriptError is a failure raised inside Lua code. Message is the raised
// value without the interpreter's stack trace.
type ScriptError struct {
	Message string
	Cause   error
}

func (e *ScriptError) Error() string { return e.Message }

func (e *ScriptError) Unwrap() error { return e.Cause }

// errorMessage extracts the raised value from a gopher-lua error. Go errors
// raised through L.RaiseError/L.Error keep their text; stack traces are
// dropped.
func errorMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if apiErr.Cause != nil && apiErr.Object == nil {
			return apiErr.Cause.Error()
		}
		if apiErr.Object != nil {
			if s, ok := apiErr.Object.(lua.LString); ok {
				return string(s)
			}
			return apiErr.Object.String()
		}
	}
	msg := err.Error()
	if i := strings.Index(msg, "\nstack traceback:"); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
