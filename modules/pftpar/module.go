// Package pftpar checks the plant and crop functional type parameter
// table. Records are authored independently, so the check only enforces
// what every record must carry: a unique name and the numeric fields
// named by the rules.
package pftpar

import (
	"context"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var zero = 0.0

// DefaultRules are applied to every record. Matrix rules for the same field
// replace them.
var DefaultRules = []*config.Rule{
	{Field: keypath.MustParse("sla"), Required: true, Min: &zero},
	{Field: keypath.MustParse("longevity"), Required: true, Min: &zero},
	{Field: keypath.MustParse("turnover.leaf"), Required: true, Min: &zero},
}

// Rules merges extra rules into the defaults, keyed by field.
func Rules(extra []*config.Rule) []*config.Rule {
	out := make([]*config.Rule, 0, len(DefaultRules)+len(extra))
	for _, d := range DefaultRules {
		if !overridden(d, extra) {
			out = append(out, d)
		}
	}
	return append(out, extra...)
}

func overridden(d *config.Rule, extra []*config.Rule) bool {
	for _, e := range extra {
		if e.Field.Equal(d.Field) {
			return true
		}
	}
	return false
}

// Check validates every pftpar record.
func Check(_ context.Context, in *registry.Input) []registry.Finding {
	path := keypath.Root.Key("pftpar")
	v, ok := in.Doc.Root.Get("pftpar")
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return []registry.Finding{registry.Errorf("type", path, "must be an array, got %s", document.TypeName(v))}
	}

	rules := Rules(in.Rules)
	var findings []registry.Finding
	names := make(map[string]keypath.Path)
	for i, e := range list {
		rp := path.Index(i)
		rec, ok := e.(*document.Object)
		if !ok {
			findings = append(findings, registry.Errorf("type", rp, "must be an object, got %s", document.TypeName(e)))
			continue
		}

		switch nv, _ := rec.Get("name"); name := nv.(type) {
		case string:
			if first, dup := names[name]; dup {
				findings = append(findings, registry.Errorf("duplicate-name", rp.Key("name"), "duplicate PFT name %q (first at %s)", name, first))
			} else {
				names[name] = rp.Key("name")
			}
		case nil:
			findings = append(findings, registry.Errorf("missing-field", rp.Key("name"), "record has no name"))
		default:
			findings = append(findings, registry.Errorf("type", rp.Key("name"), "must be a string, got %s", document.TypeName(name)))
		}

		for _, rule := range rules {
			findings = append(findings, apply(rp, rec, rule)...)
		}
	}
	return findings
}

func apply(record keypath.Path, rec *document.Object, rule *config.Rule) []registry.Finding {
	fp := record.Join(rule.Field)
	v, ok := document.Lookup(rec, rule.Field)
	if !ok {
		if rule.Required {
			return []registry.Finding{registry.Errorf("missing-field", fp, "required parameter is missing")}
		}
		return nil
	}
	f, ok := document.Float(v)
	if !ok {
		return []registry.Finding{registry.Errorf("type", fp, "must be a finite number, got %s", document.TypeName(v))}
	}
	if rule.Min != nil && f < *rule.Min {
		return []registry.Finding{registry.Errorf("range", fp, "%g is below the minimum %g", f, *rule.Min)}
	}
	if rule.Max != nil && f > *rule.Max {
		return []registry.Finding{registry.Errorf("range", fp, "%g is above the maximum %g", f, *rule.Max)}
	}
	return nil
}

// Register registers the check with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("pftpar", &registry.RegisteredCheck{
		Description: "PFT records carry unique names and sane required parameters.",
		Fn:          Check,
	})
}
