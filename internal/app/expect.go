package app

import (
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/registry"
)

const expectCheck = "expect"

// evaluate checks a run's expectations against its resolved document.
func evaluate(conv config.Converter, doc *document.Document, exps []*config.Expectation) []registry.Finding {
	var findings []registry.Finding
	fail := func(e *config.Expectation, format string, args ...any) {
		f := registry.Errorf("expectation", e.Path, format, args...)
		f.Check = expectCheck
		findings = append(findings, f)
	}

	for _, e := range exps {
		v, present := doc.Lookup(e.Path)
		if e.Present != nil && *e.Present != present {
			if present {
				fail(e, "expected to be absent")
			} else {
				fail(e, "expected to be present")
			}
			continue
		}
		if !present {
			if e.Length != nil || e.Equals != nil {
				fail(e, "value is missing")
			}
			continue
		}

		if e.Length != nil {
			n, ok := document.Length(v)
			switch {
			case !ok:
				fail(e, "expected length %d, but a %s has no length", *e.Length, document.TypeName(v))
			case n != *e.Length:
				fail(e, "expected length %d, got %d", *e.Length, n)
			}
		}

		if e.Equals != nil {
			got, err := conv.ToCtyValue(v)
			if err != nil {
				fail(e, "cannot compare value: %v", err)
				continue
			}
			if !ctyEqual(*e.Equals, got) {
				fail(e, "expected %s, got %s", render(*e.Equals), render(got))
			}
		}
	}
	return findings
}

func ctyEqual(want, got cty.Value) bool {
	if want.IsNull() || got.IsNull() {
		return want.IsNull() && got.IsNull()
	}
	if !want.Type().Equals(got.Type()) {
		return false
	}
	eq := want.Equals(got)
	return eq.IsKnown() && eq.True()
}

func render(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
