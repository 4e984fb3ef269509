// Package inputs checks the "input" manifest: named datasets mapped to
// {fmt, name} records.
package inputs

import (
	"context"
	"strings"

	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Formats lists the dataset formats the engine can read. Matching is
// case-insensitive since older manifests spell them in upper case.
var Formats = []string{"meta", "clm", "clm2", "raw", "txt", "cdf", "sock"}

// Check validates the input manifest.
func Check(_ context.Context, in *registry.Input) []registry.Finding {
	path := keypath.Root.Key("input")
	v, ok := in.Doc.Root.Get("input")
	if !ok {
		return []registry.Finding{registry.Errorf("missing-field", path, "no input manifest")}
	}
	manifest, ok := v.(*document.Object)
	if !ok {
		return []registry.Finding{registry.Errorf("type", path, "must be an object, got %s", document.TypeName(v))}
	}

	var findings []registry.Finding
	for _, name := range manifest.Keys() {
		ep := path.Key(name)
		entry, _ := manifest.Get(name)
		rec, ok := entry.(*document.Object)
		if !ok {
			findings = append(findings, registry.Errorf("type", ep, "must be an object, got %s", document.TypeName(entry)))
			continue
		}
		findings = append(findings, checkEntry(ep, rec)...)
	}
	return findings
}

func checkEntry(path keypath.Path, rec *document.Object) []registry.Finding {
	var findings []registry.Finding

	format := ""
	switch v, _ := rec.Get("fmt"); t := v.(type) {
	case nil:
		findings = append(findings, registry.Errorf("missing-field", path.Key("fmt"), "dataset has no fmt"))
	case string:
		format = strings.ToLower(t)
		if !known(format) {
			findings = append(findings, registry.Errorf("unknown-value", path.Key("fmt"), "unknown input format %q (want one of %s)", t, strings.Join(Formats, ", ")))
		}
	default:
		if _, isInt := document.Int(t); isInt {
			findings = append(findings, registry.Warnf("legacy-encoding", path.Key("fmt"), "format given as integer code %v", t))
		} else {
			findings = append(findings, registry.Errorf("type", path.Key("fmt"), "must be a string, got %s", document.TypeName(t)))
		}
	}

	// Socket inputs are streamed and carry no file name.
	if format == "sock" {
		return findings
	}
	switch v, _ := rec.Get("name"); t := v.(type) {
	case nil:
		findings = append(findings, registry.Errorf("missing-field", path.Key("name"), "dataset has no name"))
	case string:
		if strings.TrimSpace(t) == "" {
			findings = append(findings, registry.Errorf("empty", path.Key("name"), "dataset name is empty"))
		}
	default:
		findings = append(findings, registry.Errorf("type", path.Key("name"), "must be a string, got %s", document.TypeName(t)))
	}
	return findings
}

func known(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Register registers the check with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("inputs", &registry.RegisteredCheck{
		Description: "Input datasets name a known format and a file.",
		Fn:          Check,
	})
}
