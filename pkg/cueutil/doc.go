// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// It backs both the project configuration loader and the schema validators
// that filters declare for their arguments:
//
//  1. Compile the schema
//  2. Compile user data and unify with the schema
//  3. Validate and decode
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[fileConfig](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("blockbuild.config.json"),
//	)
package cueutil
