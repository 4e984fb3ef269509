package keypath

import (
	"strconv"
	"strings"
)

// String renders the path in its canonical form. The root renders as ".".
func (p Path) String() string {
	if p.IsRoot() {
		return "."
	}

	var sb strings.Builder
	for i, seg := range p.Segments {
		if seg.IsIndex() {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteByte(']')
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.Key)
	}
	return sb.String()
}

// Equal reports whether two paths address the same value.
func (p Path) Equal(other Path) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// MarshalText encodes the path in its canonical form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
