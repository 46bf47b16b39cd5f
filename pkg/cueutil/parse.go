// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

var (
	// ErrSyntax marks data that could not be compiled at all (as opposed to
	// data that compiled but did not satisfy the schema).
	ErrSyntax = errors.New("syntax error")

	// ErrSchema marks an invalid embedded or user-supplied schema.
	ErrSchema = errors.New("invalid schema")
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	Value   *T
	Unified cue.Value
}

// ParseAndDecode performs the 3-step CUE parsing flow:
//
//  1. Compile the embedded schema
//  2. Compile user data (CUE or JSON) and unify it with schemaPath
//  3. Validate and decode to T
//
// Compile failures of the user data wrap ErrSyntax; validation failures are
// returned formatted with JSON paths.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("%w: failed to compile schema: %w", ErrSchema, schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, FormatError(userValue.Err(), filename))
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if !schemaRoot.Exists() || schemaRoot.Err() != nil {
		return nil, fmt.Errorf("%w: schema definition %s not found", ErrSchema, schemaPath)
	}

	unified, err := Validate(schemaRoot, userValue, true)
	if err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}

// Validate unifies data with schema and validates the result.
func Validate(schema, data cue.Value, concrete bool) (cue.Value, error) {
	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(concrete)); err != nil {
		return unified, err
	}
	return unified, nil
}
