package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"

	"github.com/vk/lpjcfg/internal/keypath"
)

// Options controls parsing.
type Options struct {
	// Lenient removes trailing commas (and any leftover comments) before
	// parsing instead of rejecting them.
	Lenient bool
}

// Duplicate records an object key that appeared more than once.
type Duplicate struct {
	Path   keypath.Path
	Offset int64
}

// Document is a parsed configuration.
type Document struct {
	Root *Object
	// Duplicates lists repeated keys in the order they were met.
	Duplicates []Duplicate
	// Repairs holds the byte offsets of trailing commas removed in
	// lenient mode.
	Repairs []int64
}

// SyntaxError reports malformed JSON at a position of the parsed text.
type SyntaxError struct {
	Offset int64
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Parse parses resolved configuration text.
func Parse(data []byte, opts Options) (*Document, error) {
	doc := &Document{}
	if opts.Lenient {
		cleaned := jsonc.ToJSON(data)
		doc.Repairs = repairedCommas(data, cleaned)
		data = cleaned
	}

	p := &parser{data: data, dec: json.NewDecoder(bytes.NewReader(data)), doc: doc}
	p.dec.UseNumber()

	tok, err := p.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, p.syntaxError(int64(len(data)), "empty document")
	}
	if err != nil {
		return nil, p.wrap(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, p.syntaxError(p.dec.InputOffset(), "top-level value must be an object")
	}

	root, err := p.object(keypath.Root)
	if err != nil {
		return nil, err
	}
	doc.Root = root

	if _, err := p.dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, p.wrap(err)
		}
		return nil, p.syntaxError(p.dec.InputOffset(), "unexpected content after the top-level object")
	}
	return doc, nil
}

type parser struct {
	data []byte
	dec  *json.Decoder
	doc  *Document
}

func (p *parser) value(path keypath.Path) (any, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.wrap(err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object(path)
		case '[':
			return p.array(path)
		}
		return nil, p.syntaxError(p.dec.InputOffset(), fmt.Sprintf("unexpected %q", rune(t)))
	default:
		return t, nil
	}
}

func (p *parser) object(path keypath.Path) (*Object, error) {
	obj := NewObject()
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrap(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.syntaxError(p.dec.InputOffset(), "object key must be a string")
		}
		offset := p.dec.InputOffset()

		child := path.Key(key)
		v, err := p.value(child)
		if err != nil {
			return nil, err
		}
		if obj.Set(key, v) {
			p.doc.Duplicates = append(p.doc.Duplicates, Duplicate{Path: child, Offset: offset})
		}
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, p.wrap(err)
	}
	return obj, nil
}

func (p *parser) array(path keypath.Path) ([]any, error) {
	arr := []any{}
	for p.dec.More() {
		v, err := p.value(path.Index(len(arr)))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, p.wrap(err)
	}
	return arr, nil
}

// wrap converts decoder errors into SyntaxErrors with a position.
func (p *parser) wrap(err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return p.syntaxError(se.Offset, se.Error())
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return p.syntaxError(int64(len(p.data)), "unexpected end of document")
	}
	return err
}

func (p *parser) syntaxError(offset int64, msg string) *SyntaxError {
	line, col := Position(p.data, offset)
	return &SyntaxError{Offset: offset, Line: line, Column: col, Msg: msg}
}

// Position converts a byte offset into a 1-based line and column.
func Position(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 0 {
		offset = 0
	}
	head := data[:offset]
	line = bytes.Count(head, []byte{'\n'}) + 1
	column = int(offset) - (bytes.LastIndexByte(head, '\n') + 1) + 1
	return line, column
}

// repairedCommas returns the offsets of commas that jsonc removed. jsonc
// keeps the input length and line breaks, so offsets stay valid.
func repairedCommas(orig, cleaned []byte) []int64 {
	var offsets []int64
	if len(orig) != len(cleaned) {
		return nil
	}
	for i := range orig {
		if orig[i] != ',' || cleaned[i] == ',' {
			continue
		}
		// Commas inside removed comments are not repairs.
		rest := bytes.TrimLeft(cleaned[i+1:], " \t\r\n")
		if len(rest) > 0 && (rest[0] == ']' || rest[0] == '}') {
			offsets = append(offsets, int64(i))
		}
	}
	return offsets
}
