// Package outputs checks the "output" list: one {id, file:{fmt, name}}
// record per output variable, ids unique.
package outputs

import (
	"context"
	"strings"

	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Formats lists the file formats an output can be written in.
var Formats = []string{"raw", "clm", "txt", "cdf", "sock"}

// Check validates the output list.
func Check(_ context.Context, in *registry.Input) []registry.Finding {
	path := keypath.Root.Key("output")
	v, ok := in.Doc.Root.Get("output")
	if !ok {
		return []registry.Finding{registry.Warnf("missing-field", path, "no output list; the run writes nothing")}
	}
	list, ok := v.([]any)
	if !ok {
		return []registry.Finding{registry.Errorf("type", path, "must be an array, got %s", document.TypeName(v))}
	}

	var findings []registry.Finding
	firstSeen := make(map[string]keypath.Path)
	for i, e := range list {
		ep := path.Index(i)
		rec, ok := e.(*document.Object)
		if !ok {
			findings = append(findings, registry.Errorf("type", ep, "must be an object, got %s", document.TypeName(e)))
			continue
		}

		idv, ok := rec.Get("id")
		id, isString := idv.(string)
		switch {
		case !ok:
			findings = append(findings, registry.Errorf("missing-field", ep.Key("id"), "output has no id"))
		case !isString:
			findings = append(findings, registry.Errorf("type", ep.Key("id"), "must be a string, got %s", document.TypeName(idv)))
		default:
			if first, dup := firstSeen[id]; dup {
				findings = append(findings, registry.Errorf("duplicate-id", ep.Key("id"), "duplicate output id %q (first at %s)", id, first))
			} else {
				firstSeen[id] = ep.Key("id")
			}
		}

		findings = append(findings, checkFile(ep.Key("file"), rec)...)
	}
	return findings
}

func checkFile(path keypath.Path, rec *document.Object) []registry.Finding {
	v, ok := rec.Get("file")
	if !ok {
		return []registry.Finding{registry.Errorf("missing-field", path, "output has no file")}
	}
	file, ok := v.(*document.Object)
	if !ok {
		return []registry.Finding{registry.Errorf("type", path, "must be an object, got %s", document.TypeName(v))}
	}

	var findings []registry.Finding
	switch fmtv, _ := file.Get("fmt"); t := fmtv.(type) {
	case nil:
		findings = append(findings, registry.Errorf("missing-field", path.Key("fmt"), "file has no fmt"))
	case string:
		if !known(t) {
			findings = append(findings, registry.Errorf("unknown-value", path.Key("fmt"), "unknown output format %q (want one of %s)", t, strings.Join(Formats, ", ")))
		}
	default:
		if _, isInt := document.Int(t); isInt {
			findings = append(findings, registry.Warnf("legacy-encoding", path.Key("fmt"), "format given as integer code %v", t))
		} else {
			findings = append(findings, registry.Errorf("type", path.Key("fmt"), "must be a string, got %s", document.TypeName(t)))
		}
	}

	if name, _ := file.Get("name"); name == nil {
		findings = append(findings, registry.Errorf("missing-field", path.Key("name"), "file has no name"))
	} else if s, ok := name.(string); !ok || s == "" {
		findings = append(findings, registry.Errorf("type", path.Key("name"), "must be a non-empty string"))
	}
	return findings
}

func known(format string) bool {
	for _, f := range Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// Register registers the check with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("outputs", &registry.RegisteredCheck{
		Description: "Output records are well formed and their ids unique.",
		Fn:          Check,
	})
}
