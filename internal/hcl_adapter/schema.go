package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level construct a matrix file may hold.
type fileRoot struct {
	Template    *string     `hcl:"template,optional"`
	IncludeDirs []string    `hcl:"include_dirs,optional"`
	Defines     []string    `hcl:"defines,optional"`
	Undefines   []string    `hcl:"undefines,optional"`
	Lenient     *bool       `hcl:"lenient,optional"`
	Rules       []*PFTRule  `hcl:"pft_rule,block"`
	Runs        []*RunBlock `hcl:"run,block"`
}

// PFTRule maps a `pft_rule "<field>" { ... }` block.
type PFTRule struct {
	Field    string   `hcl:"field,label"`
	Required *bool    `hcl:"required,optional"`
	Min      *float64 `hcl:"min,optional"`
	Max      *float64 `hcl:"max,optional"`
}

// RunBlock maps a `run "<name>" { ... }` block. Defines stays an
// expression so an omitted attribute can be told apart from an empty list.
type RunBlock struct {
	Name      string         `hcl:"name,label"`
	Defines   hcl.Expression `hcl:"defines,optional"`
	Undefines []string       `hcl:"undefines,optional"`
	Expects   []*ExpectBlock `hcl:"expect,block"`
}

// ExpectBlock maps an `expect "<keypath>" { ... }` block.
type ExpectBlock struct {
	Path    string         `hcl:"path,label"`
	Equals  hcl.Expression `hcl:"equals,optional"`
	Length  *int           `hcl:"length,optional"`
	Present *bool          `hcl:"present,optional"`
}
