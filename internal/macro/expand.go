package macro

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// maxDepth bounds nested argument pre-expansion.
	maxDepth = 256
	// maxExpansions bounds the replacements made by one Expand call. Hide
	// sets guarantee termination, but not a small result.
	maxExpansions = 1 << 16
)

// ErrTooDeep is returned when expansion nests deeper than maxDepth or makes
// more than maxExpansions replacements.
var ErrTooDeep = errors.New("macro expansion nested too deeply")

// ErrUnterminatedArgs is returned when the argument list of a function-like
// macro call is not closed before the end of the input.
var ErrUnterminatedArgs = errors.New("unterminated argument list")

// Expand substitutes every macro in text and returns the result.
func (t *Table) Expand(text string) (string, error) {
	toks, err := t.ExpandTokens(Tokenize(text))
	if err != nil {
		return "", err
	}
	return Join(toks), nil
}

// ExpandTokens substitutes every macro in toks.
func (t *Table) ExpandTokens(toks []Token) ([]Token, error) {
	e := expander{table: t}
	out, err := e.expand(withHide(toks, nil))
	if err != nil {
		return nil, err
	}
	plain := make([]Token, len(out))
	for i, ht := range out {
		plain[i] = ht.Token
	}
	return plain, nil
}

type expander struct {
	table      *Table
	depth      int
	expansions int
}

// hideSet holds the macro names a token must not be expanded by again. Sets
// are never mutated once attached to a token.
type hideSet map[string]struct{}

func (h hideSet) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h hideSet) with(name string) hideSet {
	n := make(hideSet, len(h)+1)
	for k := range h {
		n[k] = struct{}{}
	}
	n[name] = struct{}{}
	return n
}

func (h hideSet) intersect(other hideSet) hideSet {
	n := make(hideSet)
	for k := range h {
		if other.has(k) {
			n[k] = struct{}{}
		}
	}
	return n
}

func (h hideSet) union(other hideSet) hideSet {
	if len(other) == 0 {
		return h
	}
	if len(h) == 0 {
		return other
	}
	n := make(hideSet, len(h)+len(other))
	for k := range h {
		n[k] = struct{}{}
	}
	for k := range other {
		n[k] = struct{}{}
	}
	return n
}

// hToken is a token with the names that produced it.
type hToken struct {
	Token
	hide hideSet
}

func withHide(toks []Token, hide hideSet) []hToken {
	out := make([]hToken, len(toks))
	for i, t := range toks {
		out[i] = hToken{Token: t, hide: hide}
	}
	return out
}

// expand scans ts left to right. A replacement is pushed back in front of
// the unread input and scanned again together with it, so a macro that
// expands to the name of a function-like macro picks up the arguments that
// follow the original invocation.
func (e *expander) expand(ts []hToken) ([]hToken, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxDepth {
		return nil, ErrTooDeep
	}

	out := make([]hToken, 0, len(ts))
	for len(ts) > 0 {
		tok := ts[0]
		m, ok := e.table.macros[tok.Text]
		if tok.Kind != Ident || !ok || tok.hide.has(tok.Text) {
			out = append(out, tok)
			ts = ts[1:]
			continue
		}

		if !m.FuncLike {
			if err := e.count(); err != nil {
				return nil, err
			}
			repl := paste(withHide(m.Body, nil))
			hide := tok.hide.with(m.Name)
			for i := range repl {
				repl[i].hide = hide
			}
			ts = append(repl, ts[1:]...)
			continue
		}

		open := skipSpace(ts, 1)
		if open >= len(ts) || ts[open].Kind != Punct || ts[open].Text != "(" {
			// A function-like macro name without arguments is left alone.
			out = append(out, tok)
			ts = ts[1:]
			continue
		}
		if err := e.count(); err != nil {
			return nil, err
		}
		args, closing, err := collectArgs(ts, open)
		if err != nil {
			return nil, fmt.Errorf("macro %s: %w", m.Name, err)
		}
		if len(m.Params) == 0 && len(args) == 1 && isBlank(args[0]) {
			args = nil
		}
		if len(args) != len(m.Params) {
			return nil, fmt.Errorf("macro %s expects %d arguments, got %d", m.Name, len(m.Params), len(args))
		}

		body, err := e.substitute(m, args)
		if err != nil {
			return nil, err
		}
		repl := paste(body)
		hide := tok.hide.intersect(ts[closing].hide).with(m.Name)
		for i := range repl {
			repl[i].hide = repl[i].hide.union(hide)
		}
		ts = append(repl, ts[closing+1:]...)
	}
	return out, nil
}

func (e *expander) count() error {
	e.expansions++
	if e.expansions > maxExpansions {
		return ErrTooDeep
	}
	return nil
}

// substitute replaces parameters in m's body with the given arguments.
// Operands of # are stringified, operands of ## are used verbatim, and all
// other occurrences are fully expanded first.
func (e *expander) substitute(m *Macro, args [][]hToken) ([]hToken, error) {
	index := make(map[string]int, len(m.Params))
	for i, p := range m.Params {
		index[p] = i
	}

	body := withHide(m.Body, nil)
	var out []hToken
	for i := 0; i < len(body); i++ {
		tok := body[i]

		if tok.Kind == Punct && tok.Text == "#" {
			j := skipSpace(body, i+1)
			if j < len(body) && body[j].Kind == Ident {
				if n, ok := index[body[j].Text]; ok {
					out = append(out, hToken{Token: Token{Kind: String, Text: stringify(args[n])}})
					i = j
					continue
				}
			}
			out = append(out, tok)
			continue
		}

		n, isParam := index[tok.Text]
		if tok.Kind != Ident || !isParam {
			out = append(out, tok)
			continue
		}

		if pastedBefore(body, i) || pastedAfter(body, i) {
			arg := trimSpace(args[n])
			if len(arg) == 0 {
				arg = []hToken{{Token: Token{Kind: placemarker}}}
			}
			out = append(out, arg...)
			continue
		}

		expanded, err := e.expand(trimSpace(args[n]))
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// collectArgs reads a parenthesised argument list starting at the '(' at
// ts[open]. It returns the arguments and the index of the closing ')'.
func collectArgs(ts []hToken, open int) ([][]hToken, int, error) {
	var args [][]hToken
	var cur []hToken
	depth := 0
	for i := open + 1; i < len(ts); i++ {
		tok := ts[i]
		if tok.Kind == Punct {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					return append(args, cur), i, nil
				}
				depth--
			case ",":
				if depth == 0 {
					args = append(args, cur)
					cur = nil
					continue
				}
			}
		}
		cur = append(cur, tok)
	}
	return nil, 0, ErrUnterminatedArgs
}

// paste applies ## operators in ts. A pasted token keeps the hide set of
// its left operand.
func paste(ts []hToken) []hToken {
	hasPaste := false
	for _, t := range ts {
		if t.Kind == Punct && t.Text == "##" {
			hasPaste = true
			break
		}
	}
	if !hasPaste {
		return dropPlacemarkers(ts)
	}

	var out []hToken
	for i := 0; i < len(ts); i++ {
		tok := ts[i]
		if tok.Kind != Punct || tok.Text != "##" {
			out = append(out, tok)
			continue
		}
		out = trimTrailingSpace(out)
		j := skipSpace(ts, i+1)
		if len(out) == 0 || j >= len(ts) {
			// ## at either end of a replacement list is ill-formed; keep it.
			out = append(out, tok)
			continue
		}
		left := out[len(out)-1]
		right := ts[j]
		out = out[:len(out)-1]
		switch {
		case left.Kind == placemarker:
			out = append(out, right)
		case right.Kind == placemarker:
			out = append(out, left)
		default:
			out = append(out, withHide(Tokenize(left.Text+right.Text), left.hide)...)
		}
		i = j
	}
	return dropPlacemarkers(out)
}

func dropPlacemarkers(ts []hToken) []hToken {
	out := make([]hToken, 0, len(ts))
	for _, t := range ts {
		if t.Kind != placemarker {
			out = append(out, t)
		}
	}
	return out
}

// stringify implements the # operator: the argument's spelling with
// whitespace runs collapsed, quoted, and with string literals escaped.
func stringify(arg []hToken) string {
	var sb strings.Builder
	sb.WriteByte('"')
	pendingSpace := false
	for _, t := range trimSpace(arg) {
		if t.Kind == Space {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		if t.Kind == String {
			sb.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.Text))
			continue
		}
		sb.WriteString(t.Text)
	}
	sb.WriteByte('"')
	return sb.String()
}

func pastedBefore(body []hToken, i int) bool {
	for j := i - 1; j >= 0; j-- {
		if body[j].Kind == Space {
			continue
		}
		return body[j].Kind == Punct && body[j].Text == "##"
	}
	return false
}

func pastedAfter(body []hToken, i int) bool {
	j := skipSpace(body, i+1)
	return j < len(body) && body[j].Kind == Punct && body[j].Text == "##"
}

func skipSpace(ts []hToken, i int) int {
	for i < len(ts) && ts[i].Kind == Space {
		i++
	}
	return i
}

func trimSpace(ts []hToken) []hToken {
	start := skipSpace(ts, 0)
	return trimTrailingSpace(ts[start:])
}

func trimTrailingSpace(ts []hToken) []hToken {
	end := len(ts)
	for end > 0 && ts[end-1].Kind == Space {
		end--
	}
	return ts[:end]
}

func isBlank(ts []hToken) bool {
	return len(trimSpace(ts)) == 0
}
