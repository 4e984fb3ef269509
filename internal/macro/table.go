package macro

import (
	"fmt"
	"sort"
	"strings"
)

// Macro is a single #define binding.
type Macro struct {
	Name     string
	FuncLike bool
	Params   []string
	Body     []Token
}

// Value returns the replacement list as text with surrounding space trimmed.
func (m *Macro) Value() string {
	return strings.TrimSpace(Join(m.Body))
}

// sameAs reports whether two definitions are identical in the sense of
// C's redefinition rule: same parameters and same replacement list,
// whitespace runs compared as single separators.
func (m *Macro) sameAs(other *Macro) bool {
	if m.FuncLike != other.FuncLike || len(m.Params) != len(other.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != other.Params[i] {
			return false
		}
	}
	return normalize(m.Body) == normalize(other.Body)
}

func normalize(toks []Token) string {
	var sb strings.Builder
	for _, t := range toks {
		if t.Kind == Space {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(t.Text)
	}
	return strings.TrimSpace(sb.String())
}

// Table is the set of bindings visible at one point of a translation unit.
// It is not safe for concurrent use; concurrent resolutions each work on
// their own Clone.
type Table struct {
	macros map[string]*Macro
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{macros: make(map[string]*Macro)}
}

// Set installs m, replacing any binding with the same name. It reports
// whether an existing, different binding was replaced.
func (t *Table) Set(m *Macro) (redefined bool) {
	if old, ok := t.macros[m.Name]; ok && !old.sameAs(m) {
		redefined = true
	}
	t.macros[m.Name] = m
	return redefined
}

// Define binds an object-like macro.
func (t *Table) Define(name, value string) (bool, error) {
	if !IsIdentifier(name) {
		return false, fmt.Errorf("macro name %q is not an identifier", name)
	}
	return t.Set(&Macro{Name: name, Body: Tokenize(strings.TrimSpace(value))}), nil
}

// DefineFunc binds a function-like macro.
func (t *Table) DefineFunc(name string, params []string, body string) (bool, error) {
	if !IsIdentifier(name) {
		return false, fmt.Errorf("macro name %q is not an identifier", name)
	}
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if !IsIdentifier(p) {
			return false, fmt.Errorf("macro %s: parameter %q is not an identifier", name, p)
		}
		if _, dup := seen[p]; dup {
			return false, fmt.Errorf("macro %s: duplicate parameter %q", name, p)
		}
		seen[p] = struct{}{}
	}
	m := &Macro{Name: name, FuncLike: true, Params: append([]string(nil), params...), Body: Tokenize(strings.TrimSpace(body))}
	return t.Set(m), nil
}

// Undefine removes a binding. Removing an unknown name is not an error.
func (t *Table) Undefine(name string) {
	delete(t.macros, name)
}

// Lookup returns the binding for name.
func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// IsDefined reports whether name is bound.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// Names returns all bound names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.macros))
	for name := range t.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	return len(t.macros)
}

// Clone returns an independent copy. Macros themselves are immutable once
// installed, so they are shared.
func (t *Table) Clone() *Table {
	c := &Table{macros: make(map[string]*Macro, len(t.macros))}
	for k, v := range t.macros {
		c.macros[k] = v
	}
	return c
}

// ParseDirective parses the operand of a #define directive:
// `NAME body` or `NAME(a, b) body`. A parenthesis directly after the name
// (no space) makes the macro function-like.
func ParseDirective(arg string) (*Macro, error) {
	arg = strings.TrimLeft(arg, " \t")
	end := 0
	for end < len(arg) && isIdentPart(arg[end]) {
		end++
	}
	name := arg[:end]
	if !IsIdentifier(name) {
		return nil, fmt.Errorf("macro names must be identifiers, got %q", arg)
	}
	rest := arg[end:]

	if !strings.HasPrefix(rest, "(") {
		if rest != "" && !isSpace(rest[0]) {
			return nil, fmt.Errorf("missing whitespace after the macro name %s", name)
		}
		return &Macro{Name: name, Body: Tokenize(strings.TrimSpace(rest))}, nil
	}

	closeIdx := strings.IndexByte(rest, ')')
	if closeIdx < 0 {
		return nil, fmt.Errorf("missing ')' in parameter list of macro %s", name)
	}
	var params []string
	if list := strings.TrimSpace(rest[1:closeIdx]); list != "" {
		for _, p := range strings.Split(list, ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}
	t := NewTable()
	if _, err := t.DefineFunc(name, params, rest[closeIdx+1:]); err != nil {
		return nil, err
	}
	m, _ := t.Lookup(name)
	return m, nil
}

// ParseDefine parses a command-line definition in `-D` form: `NAME`,
// `NAME=VALUE` or `F(x)=body`. A bare name is bound to 1.
func ParseDefine(def string) (*Macro, error) {
	lhs, value, hasValue := strings.Cut(def, "=")
	if !hasValue {
		value = "1"
	}
	lhs = strings.TrimSpace(lhs)
	if strings.Contains(lhs, "(") {
		return ParseDirective(lhs + " " + value)
	}
	if !IsIdentifier(lhs) {
		return nil, fmt.Errorf("invalid definition %q: %q is not an identifier", def, lhs)
	}
	return &Macro{Name: lhs, Body: Tokenize(strings.TrimSpace(value))}, nil
}
