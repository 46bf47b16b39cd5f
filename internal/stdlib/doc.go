// SPDX-License-Identifier: MPL-2.0

// Package stdlib builds the `std` namespace every extension and filter
// receives: build flags, logging, file system and path helpers, globbing,
// CUE schemas and JSON/YAML/TOML codecs.
package stdlib
