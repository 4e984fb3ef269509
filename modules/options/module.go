// Package options checks enumerated simulation options. Older templates
// encode options as integer macros while newer ones use strings; integers
// are accepted with a legacy-encoding warning.
package options

import (
	"context"
	"strings"

	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Option describes one simulation option. An option with no Values is a
// boolean.
type Option struct {
	Name   string
	Values []string
}

// Known lists the options the check understands. Options absent from the
// document are not reported.
var Known = []Option{
	{Name: "sim_id", Values: []string{"lpj", "lpjml", "lpjml_image", "lpjml_fms", "lpjml_copan"}},
	{Name: "fire", Values: []string{"no_fire", "fire", "spitfire", "spitfire_tmax"}},
	{Name: "irrigation", Values: []string{"no", "lim", "pot", "all"}},
	{Name: "with_nitrogen", Values: []string{"no", "lim", "unlim"}},
	{Name: "landuse", Values: []string{"no", "yes", "const", "all_crops", "only_crops"}},
	{Name: "tillage_type", Values: []string{"no", "all", "read"}},
	{Name: "river_routing"},
	{Name: "random_prec"},
	{Name: "permafrost"},
	{Name: "const_climate"},
	{Name: "const_deposition"},
	{Name: "intercrop"},
	{Name: "reservoir"},
}

// Check validates every known option present in the document.
func Check(_ context.Context, in *registry.Input) []registry.Finding {
	var findings []registry.Finding
	for _, opt := range Known {
		v, ok := in.Doc.Root.Get(opt.Name)
		if !ok {
			continue
		}
		if f, bad := opt.check(v); bad {
			findings = append(findings, f)
		}
	}
	return findings
}

func (o Option) check(v any) (registry.Finding, bool) {
	path := keypath.Root.Key(o.Name)
	if len(o.Values) == 0 {
		if _, ok := v.(bool); ok {
			return registry.Finding{}, false
		}
		if n, isInt := document.Int(v); isInt && (n == 0 || n == 1) {
			return registry.Warnf("legacy-encoding", path, "integer %d used where a boolean is expected", n), true
		}
		return registry.Errorf("type", path, "must be a boolean, got %s", document.TypeName(v)), true
	}

	switch t := v.(type) {
	case string:
		for _, known := range o.Values {
			if t == known {
				return registry.Finding{}, false
			}
		}
		return registry.Errorf("unknown-value", path, "unknown value %q (want one of %s)", t, strings.Join(o.Values, ", ")), true
	case bool:
		// "landuse" and friends were booleans before they grew more modes.
		return registry.Warnf("legacy-encoding", path, "boolean %t used where a named value is expected", t), true
	default:
		if _, isInt := document.Int(t); isInt {
			return registry.Warnf("legacy-encoding", path, "integer code %v used where a named value is expected", t), true
		}
		return registry.Errorf("type", path, "must be a string, got %s", document.TypeName(t)), true
	}
}

// Register registers the check with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("options", &registry.RegisteredCheck{
		Description: "Enumerated and boolean simulation options hold known values.",
		Fn:          Check,
	})
}
