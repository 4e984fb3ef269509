package document

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/vk/lpjcfg/internal/keypath"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Encode writes the document in the given format. JSON output is indented
// with two spaces and keeps document key order.
func (d *Document) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON, "":
		return EncodeJSON(w, d.Root)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(d.Root)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

// EncodeJSON writes v as indented JSON followed by a newline.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// Compact returns v as compact JSON.
func Compact(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest returns the hex BLAKE3 digest of the canonical encoding: compact
// JSON with object keys sorted. Two documents that differ only in key
// order share a digest; array order and number spelling are significant.
func (d *Document) Digest() (string, error) {
	canonical, err := Compact(sortedCopy(d.Root))
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// sortedCopy converts objects into plain maps, which encoding/json writes
// with sorted keys.
func sortedCopy(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, t.Len())
		for _, k := range t.keys {
			m[k] = sortedCopy(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = sortedCopy(t[i])
		}
		return out
	default:
		return v
	}
}

func yamlNode(v any) *yaml.Node {
	switch t := v.(type) {
	case *Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range t.keys {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, yamlNode(t.values[k]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(t) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, e := range t {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
	case json.Number:
		tag := "!!float"
		if _, err := t.Int64(); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	case bool:
		value := "false"
		if t {
			value = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// Lookup returns the value at path.
func (d *Document) Lookup(path keypath.Path) (any, bool) {
	return Lookup(d.Root, path)
}

// Lookup returns the value at path below v.
func Lookup(v any, path keypath.Path) (any, bool) {
	cur := v
	for _, seg := range path.Segments {
		if seg.IsIndex() {
			arr, ok := cur.([]any)
			if !ok || seg.Index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.Index]
			continue
		}
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		if cur, ok = obj.Get(seg.Key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// SortedKeys returns the keys of obj in lexical order.
func SortedKeys(obj *Object) []string {
	keys := obj.Keys()
	sort.Strings(keys)
	return keys
}
