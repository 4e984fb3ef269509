// Package structure reports textual hazards of the resolved stream that
// survive parsing: repeated object keys and trailing commas removed in
// lenient mode.
package structure

import (
	"context"

	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// CheckDuplicateKeys reports every repeated object key. The last value
// wins, which is rarely what the author of a commented-out duplicate meant.
func CheckDuplicateKeys(_ context.Context, in *registry.Input) []registry.Finding {
	var findings []registry.Finding
	for _, d := range in.Doc.Duplicates {
		f := registry.Warnf("duplicate-key", d.Path, "key %q appears more than once; the last value is used", lastKey(d.Path))
		f.Where = in.Where(d.Offset)
		findings = append(findings, f)
	}
	return findings
}

// CheckTrailingCommas reports commas that lenient parsing dropped.
func CheckTrailingCommas(_ context.Context, in *registry.Input) []registry.Finding {
	var findings []registry.Finding
	for _, off := range in.Doc.Repairs {
		f := registry.Warnf("trailing-comma", keypath.Root, "trailing comma before a closing bracket was removed")
		f.Where = in.Where(off)
		findings = append(findings, f)
	}
	return findings
}

func lastKey(p keypath.Path) string {
	if p.IsRoot() {
		return ""
	}
	return p.Segments[len(p.Segments)-1].Key
}

// Register registers the checks with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("duplicate-keys", &registry.RegisteredCheck{
		Description: "Repeated object keys.",
		Fn:          CheckDuplicateKeys,
	})
	r.RegisterCheck("trailing-commas", &registry.RegisteredCheck{
		Description: "Trailing commas removed in lenient mode.",
		Fn:          CheckTrailingCommas,
	})
}
