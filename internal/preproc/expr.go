package preproc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/lpjcfg/internal/macro"
)

// evalCondition evaluates the operand of #if or #elif against the table.
func evalCondition(expr string, table *macro.Table) (bool, error) {
	toks, err := resolveDefined(macro.Tokenize(expr), table)
	if err != nil {
		return false, err
	}
	toks, err = table.ExpandTokens(toks)
	if err != nil {
		return false, err
	}

	var operands []macro.Token
	for _, t := range toks {
		if t.Kind != macro.Space {
			operands = append(operands, t)
		}
	}
	if len(operands) == 0 {
		return false, errors.New("#if with no expression")
	}

	p := &exprParser{toks: operands}
	v, err := p.parseTernary()
	if err != nil {
		return false, err
	}
	if p.pos < len(p.toks) {
		return false, fmt.Errorf("unexpected %q in #if expression", p.toks[p.pos].Text)
	}
	return v != 0, nil
}

// resolveDefined replaces `defined X` and `defined(X)` with 1 or 0. This
// must happen before macro expansion so X itself is not expanded.
func resolveDefined(toks []macro.Token, table *macro.Table) ([]macro.Token, error) {
	out := make([]macro.Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		if toks[i].Kind != macro.Ident || toks[i].Text != "defined" {
			out = append(out, toks[i])
			continue
		}
		j := nextNonSpace(toks, i+1)
		paren := j < len(toks) && toks[j].Text == "("
		if paren {
			j = nextNonSpace(toks, j+1)
		}
		if j >= len(toks) || toks[j].Kind != macro.Ident {
			return nil, errors.New("operator \"defined\" requires an identifier")
		}
		name := toks[j].Text
		if paren {
			j = nextNonSpace(toks, j+1)
			if j >= len(toks) || toks[j].Text != ")" {
				return nil, errors.New("missing ')' after \"defined\"")
			}
		}
		value := "0"
		if table.IsDefined(name) {
			value = "1"
		}
		out = append(out, macro.Token{Kind: macro.Number, Text: value})
		i = j
	}
	return out, nil
}

func nextNonSpace(toks []macro.Token, i int) int {
	for i < len(toks) && toks[i].Kind == macro.Space {
		i++
	}
	return i
}

// exprParser is a precedence-climbing evaluator for C preprocessor integer
// expressions. While skip is positive the operands are parsed but errors
// that depend on values (division by zero) are suppressed, which gives
// && || and ?: their short-circuit behaviour.
type exprParser struct {
	toks []macro.Token
	pos  int
	skip int
}

func (p *exprParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos].Text
	}
	return ""
}

func (p *exprParser) accept(op string) bool {
	if p.pos < len(p.toks) && p.toks[p.pos].Kind == macro.Punct && p.toks[p.pos].Text == op {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) parseTernary() (int64, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return 0, err
	}
	if !p.accept("?") {
		return cond, nil
	}

	if cond == 0 {
		p.skip++
	}
	then, err := p.parseTernary()
	if cond == 0 {
		p.skip--
	}
	if err != nil {
		return 0, err
	}
	if !p.accept(":") {
		return 0, errors.New("expected ':' in #if expression")
	}
	if cond != 0 {
		p.skip++
	}
	otherwise, err := p.parseTernary()
	if cond != 0 {
		p.skip--
	}
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return then, nil
	}
	return otherwise, nil
}

// binaryLevels lists binary operators from lowest to highest precedence.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *exprParser) parseBinary(level int) (int64, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return 0, err
	}
	for {
		op := p.matchOperator(binaryLevels[level])
		if op == "" {
			return left, nil
		}

		shortCircuit := (op == "&&" && left == 0) || (op == "||" && left != 0)
		if shortCircuit {
			p.skip++
		}
		right, err := p.parseBinary(level + 1)
		if shortCircuit {
			p.skip--
		}
		if err != nil {
			return 0, err
		}
		left, err = p.apply(op, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func (p *exprParser) matchOperator(ops []string) string {
	for _, op := range ops {
		if p.accept(op) {
			return op
		}
	}
	return ""
}

func (p *exprParser) apply(op string, l, r int64) (int64, error) {
	switch op {
	case "||":
		return boolToInt(l != 0 || r != 0), nil
	case "&&":
		return boolToInt(l != 0 && r != 0), nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "&":
		return l & r, nil
	case "==":
		return boolToInt(l == r), nil
	case "!=":
		return boolToInt(l != r), nil
	case "<":
		return boolToInt(l < r), nil
	case "<=":
		return boolToInt(l <= r), nil
	case ">":
		return boolToInt(l > r), nil
	case ">=":
		return boolToInt(l >= r), nil
	case "<<":
		return l << uint64(r&63), nil
	case ">>":
		return l >> uint64(r&63), nil
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			if p.skip > 0 {
				return 0, nil
			}
			return 0, errors.New("division by zero in #if expression")
		}
		if op == "/" {
			return l / r, nil
		}
		return l % r, nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

func (p *exprParser) parseUnary() (int64, error) {
	switch {
	case p.accept("!"):
		v, err := p.parseUnary()
		return boolToInt(v == 0), err
	case p.accept("~"):
		v, err := p.parseUnary()
		return ^v, err
	case p.accept("-"):
		v, err := p.parseUnary()
		return -v, err
	case p.accept("+"):
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (int64, error) {
	if p.pos >= len(p.toks) {
		return 0, errors.New("unexpected end of #if expression")
	}
	tok := p.toks[p.pos]

	switch tok.Kind {
	case macro.Punct:
		if tok.Text != "(" {
			return 0, fmt.Errorf("unexpected %q in #if expression", tok.Text)
		}
		p.pos++
		v, err := p.parseTernary()
		if err != nil {
			return 0, err
		}
		if !p.accept(")") {
			return 0, fmt.Errorf("missing ')' in #if expression, found %q", p.peek())
		}
		return v, nil
	case macro.Number:
		p.pos++
		return parseInteger(tok.Text)
	case macro.Ident:
		// Identifiers left after expansion evaluate to zero.
		p.pos++
		return 0, nil
	default:
		return 0, fmt.Errorf("string literal %s in #if expression", tok.Text)
	}
}

func parseInteger(text string) (int64, error) {
	digits := strings.TrimRight(text, "uUlL")
	if strings.ContainsAny(digits, ".") || (!strings.HasPrefix(digits, "0x") && !strings.HasPrefix(digits, "0X") && strings.ContainsAny(digits, "eE")) {
		return 0, fmt.Errorf("floating constant %s in #if expression", text)
	}
	v, err := strconv.ParseInt(digits, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(digits, 0, 64)
		if uerr != nil {
			return 0, fmt.Errorf("invalid integer constant %s in #if expression", text)
		}
		return int64(u), nil
	}
	return v, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
