package config

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/lpjcfg/internal/keypath"
)

// Model is the unified, format-agnostic representation of an experiment
// matrix. Paths in it are absolute.
type Model struct {
	Template    string
	IncludeDirs []string
	// Defines and Undefines apply to every run before the run's own.
	Defines   []string
	Undefines []string
	Lenient   bool
	Rules     []*Rule
	Runs      []*Run
}

// Run is one resolution of the template.
type Run struct {
	Name string
	// Defines holds NAME or NAME=VALUE entries. Loaders default it to the
	// run name, which matches the RUN_ID_xx convention.
	Defines      []string
	Undefines    []string
	Expectations []*Expectation
	// File is the matrix file that declared the run.
	File string
}

// Expectation is an assertion on one value of a resolved run. Nil fields
// are not checked.
type Expectation struct {
	Path    keypath.Path
	Equals  *cty.Value
	Length  *int
	Present *bool
}

// Rule constrains a field of every pftpar record, addressed relative to
// the record.
type Rule struct {
	Field    keypath.Path
	Required bool
	Min      *float64
	Max      *float64
}

// Run returns the run with the given name.
func (m *Model) Run(name string) (*Run, bool) {
	for _, r := range m.Runs {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}
