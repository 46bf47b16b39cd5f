// SPDX-License-Identifier: MPL-2.0

package filter

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

const (
	// ExtLua selects the Lua backend.
	ExtLua = ".lua"
	// ExtShell selects the shell backend.
	ExtShell = ".sh"
	// DirName is the directory holding filter scripts, under srcPath for the
	// project and under each module directory.
	DirName = "filters"
	// ProjectNamespace is the namespace of project filters.
	ProjectNamespace = "project"
)

var (
	// ErrMainNotDefined is returned when a filter is invoked without ever
	// defining main.
	ErrMainNotDefined = errors.New("main function not defined")
	// ErrNotDeclared is returned when a script never calls filter().
	ErrNotDeclared = errors.New("filter() was never called")

	errNoParse = errors.New("arguments do not implement parse")
)

type (
	// Validator turns raw configured arguments into the value main receives.
	Validator interface {
		Parse(ctx context.Context, raw any) (any, error)
	}

	// DefinitionOptions is what a filter declared about itself. Arguments is
	// only usable when it satisfies Validator.
	DefinitionOptions struct {
		Arguments any
	}

	// Data is passed to main.
	Data struct {
		Args any
	}

	// MainFunc runs a filter's main function.
	MainFunc func(ctx context.Context, data Data) error

	// Entry is a registered filter.
	Entry struct {
		ID        string
		Namespace string
		Path      string
		Main      MainFunc
		Options   DefinitionOptions
	}

	// Source is a discovered filter file.
	Source struct {
		ID        string
		Namespace string
		Path      string
	}

	// Evaluator runs a filter script's declare phase and produces its entry.
	Evaluator interface {
		Evaluate(ctx context.Context, src Source, code []byte) (*Entry, error)
	}
)

// ID derives a filter id: the file's base name without extension, prefixed
// with "<namespace>:" for module filters. Subdirectories do not contribute.
func ID(namespace, path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if namespace == ProjectNamespace {
		return base
	}
	return namespace + ":" + base
}

// Validator returns the declared arguments as a Validator. ok is false when
// no arguments were declared; err is non-nil when they were declared but do
// not satisfy the contract.
func (o DefinitionOptions) Validator() (v Validator, ok bool, err error) {
	if o.Arguments == nil {
		return nil, false, nil
	}
	v, isValidator := o.Arguments.(Validator)
	if !isValidator {
		return nil, true, errNoParse
	}
	return v, true, nil
}

// HasValidator reports whether usable arguments were declared.
func (e *Entry) HasValidator() bool {
	_, ok, err := e.Options.Validator()
	return ok && err == nil
}
