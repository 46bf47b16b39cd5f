// SPDX-License-Identifier: MPL-2.0

// Package schema provides the CUE-backed argument validator behind
// std.schema and the shell filter `--arguments` flag.
package schema
