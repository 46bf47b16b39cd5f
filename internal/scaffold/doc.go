// SPDX-License-Identifier: MPL-2.0

// Package scaffold creates the layout of a new blockbuild project: the
// config file, an empty API extension, the filters directory and a
// manifest with translations for each requested pack.
package scaffold
