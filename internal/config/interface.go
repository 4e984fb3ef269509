package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific matrix loader.
type Loader interface {
	// Load reads the matrix from the given files or directories, translates
	// it into the format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter brings resolved document values into the loader's value system
// so expectations can be compared against them.
type Converter interface {
	// ToCtyValue converts a document value (objects, arrays, strings,
	// json.Number, bool or nil) into its cty.Value equivalent.
	ToCtyValue(v any) (cty.Value, error)
}
