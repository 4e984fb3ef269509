package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/macro"
	"github.com/vk/lpjcfg/internal/preproc"
	"github.com/vk/lpjcfg/internal/registry"
)

// job describes one resolution of a template.
type job struct {
	Name         string
	Template     string
	IncludeDirs  []string
	Defines      []string
	Undefines    []string
	Lenient      bool
	Parse        bool // parse the resolved stream as JSON
	Check        bool // run the registered checks; implies Parse
	Rules        []*config.Rule
	Expectations []*config.Expectation
}

// Result is the outcome of one job.
type Result struct {
	Name   string
	Output *preproc.Output
	// Doc is nil when the job did not parse the stream.
	Doc    *document.Document
	Report *registry.Report
	Digest string
	// Err is set when the template could not be resolved or parsed.
	Err error
}

// Failed reports whether the run needs attention: it did not resolve, or
// its report fails.
func (r *Result) Failed(strict bool) bool {
	return r.Err != nil || r.Report.Failed(strict)
}

// resolve runs one job: preprocess, parse, check, evaluate expectations.
func (a *App) resolve(ctx context.Context, j *job, conv config.Converter) *Result {
	logger := ctxlog.FromContext(ctx)
	res := &Result{Name: j.Name, Report: &registry.Report{}}

	table, err := symbols(j.Defines, j.Undefines)
	if err != nil {
		res.Err = err
		return res
	}

	proc := preproc.New(preproc.Options{IncludeDirs: j.IncludeDirs, Reader: a.reader})
	out, err := proc.Process(ctx, j.Template, table)
	if err != nil {
		res.Err = err
		return res
	}
	res.Output = out

	base := filepath.Dir(j.Template)
	for _, d := range out.Diagnostics {
		res.Report.Add(registry.Finding{
			Check:    "preprocessor",
			Code:     string(d.Kind),
			Severity: registry.SeverityWarning,
			Path:     keypath.Root,
			Message:  d.Message,
			Where:    display(base, d.Origin),
		})
	}

	if !j.Parse && !j.Check {
		return res
	}

	doc, err := document.Parse([]byte(out.Text), document.Options{Lenient: j.Lenient})
	if err != nil {
		var se *document.SyntaxError
		if errors.As(err, &se) {
			if origin, ok := out.Locate(se.Offset); ok {
				err = fmt.Errorf("%s: invalid JSON after preprocessing: %w", display(base, origin), err)
			}
		}
		res.Err = err
		return res
	}
	res.Doc = doc

	if j.Check {
		in := &registry.Input{
			Doc:   doc,
			Rules: j.Rules,
			Locate: func(offset int64) string {
				origin, ok := out.Locate(offset)
				if !ok {
					return ""
				}
				return display(base, origin)
			},
		}
		res.Report.Add(a.registry.Run(ctx, in).Findings...)
	}
	if len(j.Expectations) > 0 && conv != nil {
		res.Report.Add(evaluate(conv, doc, j.Expectations)...)
	}

	if res.Digest, err = doc.Digest(); err != nil {
		res.Err = err
		return res
	}
	logger.Debug("Run resolved.",
		"lines", len(out.Lines),
		"errors", res.Report.Errors(),
		"warnings", res.Report.Warnings(),
		"digest", res.Digest,
	)
	return res
}

// symbols builds the predefined macro table from NAME[=VALUE] definitions
// followed by removals. Later definitions of a name replace earlier ones.
func symbols(defines, undefines []string) (*macro.Table, error) {
	table := macro.NewTable()
	for _, d := range defines {
		m, err := macro.ParseDefine(d)
		if err != nil {
			return nil, fmt.Errorf("invalid definition %q: %w", d, err)
		}
		table.Set(m)
	}
	for _, u := range undefines {
		table.Undefine(u)
	}
	return table, nil
}

// display renders an origin relative to the template directory when the
// file lies below it.
func display(base string, o preproc.Origin) string {
	if rel, err := filepath.Rel(base, o.File); err == nil && !strings.HasPrefix(rel, "..") {
		o.File = filepath.ToSlash(rel)
	}
	return o.String()
}
