// SPDX-License-Identifier: MPL-2.0

// Package luahost embeds the gopher-lua interpreter that runs extension and
// filter scripts.
//
// A build owns exactly one Host. Scripts never share globals: each one is
// evaluated with its own environment table (see NewEnv) whose reads fall
// back to the base library. All access is serialized through Host.Do.
package luahost
