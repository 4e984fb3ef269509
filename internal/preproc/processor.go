package preproc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/macro"
	"github.com/vk/lpjcfg/internal/source"
)

// DefaultMaxIncludeDepth matches the nesting limit of common C preprocessors.
const DefaultMaxIncludeDepth = 200

// Options configures a Processor.
type Options struct {
	// IncludeDirs is the search path for #include, in order.
	IncludeDirs []string
	// Reader supplies file contents; it defaults to source.OS.
	Reader source.Reader
	// MaxIncludeDepth bounds #include nesting; zero means the default.
	MaxIncludeDepth int
}

// Processor resolves templates. It holds no per-run state and may be used
// by several goroutines at once.
type Processor struct {
	includeDirs []string
	reader      source.Reader
	maxDepth    int
}

// New returns a Processor for the given options.
func New(opts Options) *Processor {
	p := &Processor{
		includeDirs: append([]string(nil), opts.IncludeDirs...),
		reader:      opts.Reader,
		maxDepth:    opts.MaxIncludeDepth,
	}
	if p.reader == nil {
		p.reader = source.OS{}
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxIncludeDepth
	}
	return p
}

// Output is a resolved template.
type Output struct {
	// Text is the resolved stream, one output line per emitted template line.
	Text string
	// Lines holds the origin of every output line; Lines[0] is line 1.
	Lines []Origin
	// Files lists every file read, in inclusion order, without repeats.
	Files []string
	// Diagnostics are non-fatal findings, in the order they were made.
	Diagnostics []Diagnostic
	// Macros is the macro table at the end of the translation unit.
	Macros *macro.Table
}

// Origin returns the template location of a 1-based output line.
func (o *Output) Origin(line int) (Origin, bool) {
	if line < 1 || line > len(o.Lines) {
		return Origin{}, false
	}
	return o.Lines[line-1], true
}

// Locate returns the template location of a byte offset into Text.
func (o *Output) Locate(offset int64) (Origin, bool) {
	if offset < 0 || offset > int64(len(o.Text)) {
		return Origin{}, false
	}
	return o.Origin(strings.Count(o.Text[:offset], "\n") + 1)
}

// run is the state of one resolution.
type run struct {
	*Processor
	ctx     context.Context
	table   *macro.Table
	out     strings.Builder
	output  *Output
	stack   []string
	visited map[string]struct{}
}

// Process resolves the root template. The initial table holds externally
// supplied definitions and is not modified; definitions made by the
// template are visible in Output.Macros.
func (p *Processor) Process(ctx context.Context, root string, initial *macro.Table) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving template.", "root", root, "predefined", initial.Len())

	table := initial.Clone()
	r := &run{
		Processor: p,
		ctx:       ctx,
		table:     table,
		output:    &Output{Macros: table},
		visited:   make(map[string]struct{}),
	}

	path, err := filepath.Abs(root)
	if err != nil {
		path = filepath.Clean(root)
	}
	data, err := p.reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", root, err)
	}
	if err := r.processFile(path, string(data)); err != nil {
		return nil, err
	}

	r.output.Text = r.out.String()
	logger.Debug("Template resolved.",
		"root", root,
		"files", len(r.output.Files),
		"lines", len(r.output.Lines),
		"diagnostics", len(r.output.Diagnostics),
	)
	return r.output, nil
}

func (r *run) processFile(path, content string) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	for _, open := range r.stack {
		if open == path {
			return fmt.Errorf("include cycle: %s", strings.Join(append(r.stack, path), " -> "))
		}
	}
	if len(r.stack) >= r.maxDepth {
		return fmt.Errorf("#include nested deeper than %d at %s", r.maxDepth, path)
	}
	r.stack = append(r.stack, path)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	if _, seen := r.visited[path]; !seen {
		r.visited[path] = struct{}{}
		r.output.Files = append(r.output.Files, path)
	}

	lines, err := splitLines(path, content)
	if err != nil {
		return err
	}

	cond := &condStack{}
	for i := 0; i < len(lines); i++ {
		ll := lines[i]
		origin := Origin{File: path, Line: ll.line}
		if body, ok := directiveBody(ll.text); ok {
			if err := r.directive(origin, body, cond); err != nil {
				return err
			}
			continue
		}
		if !cond.active() {
			continue
		}

		// The arguments of a macro call may continue on the following text
		// lines, up to the next directive.
		text, last := ll.text, i
		expanded, err := r.table.Expand(text)
		for errors.Is(err, macro.ErrUnterminatedArgs) && last+1 < len(lines) {
			if _, isDirective := directiveBody(lines[last+1].text); isDirective {
				break
			}
			last++
			text += "\n" + lines[last].text
			expanded, err = r.table.Expand(text)
		}
		if err != nil {
			return &Error{Origin: origin, Msg: "expanding macros", Err: err}
		}
		for k, part := range strings.Split(expanded, "\n") {
			r.out.WriteString(part)
			r.out.WriteByte('\n')
			r.output.Lines = append(r.output.Lines, Origin{File: path, Line: lines[min(i+k, last)].line})
		}
		i = last
	}

	if cond.depth() != 0 {
		return errorf(cond.innermost(), "unterminated conditional")
	}
	return nil
}

// directiveBody returns the text after the '#' of a directive line.
func directiveBody(text string) (string, bool) {
	trimmed := strings.TrimLeft(text, " \t\f\v")
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	return trimmed[1:], true
}

// directive handles one directive line; body is the text after '#'.
func (r *run) directive(origin Origin, body string, cond *condStack) error {
	body = strings.TrimLeft(body, " \t")
	name := body
	arg := ""
	if i := strings.IndexAny(body, " \t\"<("); i >= 0 {
		name, arg = body[:i], body[i:]
	}
	arg = strings.TrimSpace(arg)
	logger := ctxlog.FromContext(r.ctx)

	switch name {
	case "ifdef", "ifndef":
		if !cond.active() {
			cond.push(false, origin)
			return nil
		}
		ident := firstIdentifier(arg)
		if ident == "" {
			return errorf(origin, "#%s requires an identifier", name)
		}
		cond.push(r.table.IsDefined(ident) == (name == "ifdef"), origin)
		return nil

	case "if":
		if !cond.active() {
			cond.push(false, origin)
			return nil
		}
		v, err := evalCondition(arg, r.table)
		if err != nil {
			return &Error{Origin: origin, Msg: "evaluating #if", Err: err}
		}
		cond.push(v, origin)
		return nil

	case "elif":
		v := false
		if cond.evaluating() {
			var err error
			v, err = evalCondition(arg, r.table)
			if err != nil {
				return &Error{Origin: origin, Msg: "evaluating #elif", Err: err}
			}
		}
		if err := cond.elif(v); err != nil {
			return &Error{Origin: origin, Msg: "misplaced directive", Err: err}
		}
		return nil

	case "else":
		if err := cond.elseBranch(); err != nil {
			return &Error{Origin: origin, Msg: "misplaced directive", Err: err}
		}
		return nil

	case "endif":
		frame, err := cond.pop()
		if err != nil {
			return &Error{Origin: origin, Msg: "misplaced directive", Err: err}
		}
		if frame.unmatched() {
			msg := fmt.Sprintf("none of the %d branches matched and there is no #else; the block contributes nothing", frame.branches)
			logger.Warn("Conditional chain selected no branch.", "origin", frame.origin.String(), "branches", frame.branches)
			r.output.Diagnostics = append(r.output.Diagnostics, Diagnostic{Kind: UnmatchedConditional, Origin: frame.origin, Message: msg})
		}
		return nil
	}

	// Everything below only acts inside an active region.
	if !cond.active() {
		return nil
	}

	switch name {
	case "":
		// Null directive.
		return nil

	case "include":
		return r.include(origin, arg)

	case "define":
		m, err := macro.ParseDirective(arg)
		if err != nil {
			return &Error{Origin: origin, Msg: "invalid #define", Err: err}
		}
		if r.table.Set(m) {
			logger.Debug("Macro redefined.", "macro", m.Name, "origin", origin.String())
			r.output.Diagnostics = append(r.output.Diagnostics, Diagnostic{
				Kind:    MacroRedefined,
				Origin:  origin,
				Message: fmt.Sprintf("%s redefined as %q", m.Name, m.Value()),
			})
		}
		return nil

	case "undef":
		ident := firstIdentifier(arg)
		if ident == "" {
			return errorf(origin, "#undef requires an identifier")
		}
		r.table.Undefine(ident)
		return nil

	case "error":
		return errorf(origin, "#error %s", arg)

	case "warning":
		logger.Warn("Template #warning.", "origin", origin.String(), "message", arg)
		r.output.Diagnostics = append(r.output.Diagnostics, Diagnostic{Kind: WarningDirective, Origin: origin, Message: arg})
		return nil

	case "pragma", "line", "ident":
		logger.Debug("Ignoring directive.", "directive", name, "origin", origin.String())
		return nil
	}

	return errorf(origin, "unknown directive #%s", name)
}

// include resolves and processes an #include operand.
func (r *run) include(origin Origin, arg string) error {
	if arg != "" && arg[0] != '"' && arg[0] != '<' {
		expanded, err := r.table.Expand(arg)
		if err != nil {
			return &Error{Origin: origin, Msg: "expanding #include operand", Err: err}
		}
		arg = strings.TrimSpace(expanded)
	}

	var name string
	var quoted bool
	switch {
	case len(arg) >= 2 && arg[0] == '"' && strings.IndexByte(arg[1:], '"') >= 0:
		name = arg[1 : 1+strings.IndexByte(arg[1:], '"')]
		quoted = true
	case len(arg) >= 2 && arg[0] == '<' && strings.IndexByte(arg, '>') > 0:
		name = arg[1:strings.IndexByte(arg, '>')]
	default:
		return errorf(origin, "#include expects \"FILENAME\" or <FILENAME>, got %q", arg)
	}
	if name == "" {
		return errorf(origin, "empty filename in #include")
	}

	var candidates []string
	if filepath.IsAbs(name) {
		candidates = []string{name}
	} else {
		if quoted {
			candidates = append(candidates, filepath.Join(filepath.Dir(origin.File), name))
		}
		for _, dir := range r.includeDirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			abs = filepath.Clean(candidate)
		}
		data, err := r.reader.ReadFile(abs)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return &Error{Origin: origin, Msg: fmt.Sprintf("reading %s", abs), Err: err}
		}
		ctxlog.FromContext(r.ctx).Debug("Including file.", "file", abs, "from", origin.String(), "depth", len(r.stack))
		if err := r.processFile(abs, string(data)); err != nil {
			var ppErr *Error
			if errors.As(err, &ppErr) {
				return err
			}
			return &Error{Origin: origin, Msg: fmt.Sprintf("in #include %q", name), Err: err}
		}
		return nil
	}
	return errorf(origin, "%s: no such file in %d search locations", name, len(candidates))
}

func firstIdentifier(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '_' || s[end] >= 'A' && s[end] <= 'Z' || s[end] >= 'a' && s[end] <= 'z' || end > 0 && s[end] >= '0' && s[end] <= '9') {
		end++
	}
	if !macro.IsIdentifier(s[:end]) {
		return ""
	}
	return s[:end]
}
