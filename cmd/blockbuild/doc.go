// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for blockbuild.
//
// This package implements the Cobra command hierarchy: build (with watch
// mode), init, filters and config. Handlers delegate to the internal
// packages through an App and only render results and errors.
package cmd
