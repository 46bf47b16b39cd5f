// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluffycraft/blockbuild/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ArgumentsDefinition is looked up first; schemas without it constrain the
// whole value.
const ArgumentsDefinition = "#Arguments"

// Validator checks raw filter arguments against a CUE schema and returns the
// decoded, defaults-filled result.
type Validator struct {
	mu     sync.Mutex
	name   string
	schema cue.Value
}

// Compile builds a validator from CUE source. name is used in error messages.
func Compile(src []byte, name string) (*Validator, error) {
	if err := cueutil.CheckFileSize(src, cueutil.DefaultMaxFileSize, name); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(name))
	if value.Err() != nil {
		return nil, fmt.Errorf("%w: %w", cueutil.ErrSchema, cueutil.FormatError(value.Err(), name))
	}

	if def := value.LookupPath(cue.ParsePath(ArgumentsDefinition)); def.Exists() {
		value = def
	}

	return &Validator{name: name, schema: value}, nil
}

// CompileFile reads and compiles a schema file.
func CompileFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return Compile(data, filepath.Base(path))
}

// Name returns the schema name used in error messages.
func (v *Validator) Name() string { return v.name }

// Parse validates raw and returns it decoded with schema defaults applied.
func (v *Validator) Parse(raw any) (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data := v.schema.Context().Encode(raw)
	if data.Err() != nil {
		return nil, fmt.Errorf("%s: cannot encode value: %w", v.name, data.Err())
	}

	unified, err := cueutil.Validate(v.schema, data, true)
	if err != nil {
		return nil, cueutil.FormatError(err, v.name)
	}

	var out any
	if err := unified.Decode(&out); err != nil {
		return nil, cueutil.FormatError(err, v.name)
	}
	return out, nil
}
