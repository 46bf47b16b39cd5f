// SPDX-License-Identifier: MPL-2.0

// Package config loads the project configuration using Viper with CUE as the
// validation layer.
//
// The config is read from blockbuild.config.json (or blockbuild.config.cue) in
// the project directory and validated against an embedded CUE schema
// (config_schema.cue). Path settings can be overridden through BLOCKBUILD_*
// environment variables and CLI arguments; the resolved Config carries
// absolute paths only.
package config
