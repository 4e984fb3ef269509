package keypath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// elementRegex matches one dot-separated element: a key followed by zero or
// more indexes, e.g. `output`, `output[3]` or `grid[0][1]`.
var elementRegex = regexp.MustCompile(`^([A-Za-z0-9_+-]+)((?:\[\d+\])*)$`)

var indexRegex = regexp.MustCompile(`\[(\d+)\]`)

// Parse converts the canonical string form of a path into a Path. "." and
// the empty string both parse to the root.
func Parse(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return Root, nil
	}

	var p Path
	for _, element := range strings.Split(raw, ".") {
		if element == "" {
			return Path{}, fmt.Errorf("key path %q contains an empty element", raw)
		}

		matches := elementRegex.FindStringSubmatch(element)
		if matches == nil {
			return Path{}, fmt.Errorf("invalid key path element %q in %q", element, raw)
		}

		p.Segments = append(p.Segments, KeySegment(matches[1]))
		for _, idx := range indexRegex.FindAllStringSubmatch(matches[2], -1) {
			n, err := strconv.Atoi(idx[1])
			if err != nil {
				return Path{}, fmt.Errorf("index %q in %q: %w", idx[1], raw, err)
			}
			p.Segments = append(p.Segments, IndexSegment(n))
		}
	}
	return p, nil
}

// MustParse is like Parse but panics on malformed input. It is intended for
// paths that are compile-time constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
