package macro

import "strings"

// Kind classifies a preprocessing token.
type Kind int

const (
	Space Kind = iota
	Ident
	Number
	String
	Punct
	// placemarker stands in for an empty macro argument next to ##.
	placemarker
)

// Token is a single preprocessing token. Space tokens keep their original
// text so that untouched regions of a line come out byte-identical.
type Token struct {
	Kind Kind
	Text string
}

// multiPunct lists punctuators longer than one byte, longest first.
var multiPunct = []string{"##", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>"}

// Tokenize splits s into preprocessing tokens. It never fails: an
// unterminated string literal runs to the end of the input.
func Tokenize(s string) []Token {
	var toks []Token
	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case isSpace(ch):
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			toks = append(toks, Token{Kind: Space, Text: s[i:j]})
			i = j
		case isIdentStart(ch):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			toks = append(toks, Token{Kind: Ident, Text: s[i:j]})
			i = j
		case isDigit(ch) || (ch == '.' && i+1 < len(s) && isDigit(s[i+1])):
			j := scanNumber(s, i)
			toks = append(toks, Token{Kind: Number, Text: s[i:j]})
			i = j
		case ch == '"':
			j := scanString(s, i)
			toks = append(toks, Token{Kind: String, Text: s[i:j]})
			i = j
		default:
			text := s[i : i+1]
			for _, p := range multiPunct {
				if strings.HasPrefix(s[i:], p) {
					text = p
					break
				}
			}
			toks = append(toks, Token{Kind: Punct, Text: text})
			i += len(text)
		}
	}
	return toks
}

// Join concatenates token texts.
func Join(toks []Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// scanNumber consumes a pp-number starting at i: a digit (or dot-digit)
// followed by identifier characters, dots and signed exponents.
func scanNumber(s string, i int) int {
	j := i + 1
	for j < len(s) {
		c := s[j]
		if (c == '+' || c == '-') && strings.ContainsRune("eEpP", rune(s[j-1])) {
			j++
			continue
		}
		if isIdentPart(c) || c == '.' {
			j++
			continue
		}
		break
	}
	return j
}

func scanString(s string, i int) int {
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '"':
			return j + 1
		}
		j++
	}
	return len(s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// IsIdentifier reports whether s is a valid macro name.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
