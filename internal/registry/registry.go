package registry

import (
	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/document"
)

// Module is the interface that all check modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Input is what a check sees of one resolved run.
type Input struct {
	Doc *document.Document
	// Rules holds extra pftpar rules from the matrix file.
	Rules []*config.Rule
	// Locate maps a byte offset of the resolved text to a template
	// position such as "par/param.cjson:12". It may be nil.
	Locate func(offset int64) string
}

// Where returns the template position of offset, or "" without a locator.
func (in *Input) Where(offset int64) string {
	if in.Locate == nil {
		return ""
	}
	return in.Locate(offset)
}

// Registry holds the registered checks for a single application instance.
type Registry struct {
	checks map[string]*RegisteredCheck
	order  []string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{checks: make(map[string]*RegisteredCheck)}
}

// Names returns the registered check names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
