package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/document"
)

// Run executes the main application logic based on the app's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "matrix", a.config.MatrixMode())

	if a.config.MatrixMode() {
		return a.runMatrix(ctx)
	}
	return a.runSingle(ctx)
}

// runSingle resolves one template and writes it to the output file or stdout.
func (a *App) runSingle(ctx context.Context) error {
	cfg := a.config
	j := &job{
		Name:        filepath.Base(cfg.Template),
		Template:    absPath(cfg.Template),
		IncludeDirs: absPaths(cfg.IncludeDirs),
		Defines:     cfg.Defines,
		Undefines:   cfg.Undefines,
		Lenient:     cfg.Lenient,
		Parse:       cfg.Format != FormatText,
		Check:       cfg.Check,
	}
	ctx = ctxlog.With(ctx, "template", cfg.Template)

	res := a.resolve(ctx, j, nil)
	if res.Err != nil {
		return res.Err
	}
	for _, f := range res.Report.Findings {
		fmt.Fprintln(a.errW, f.String())
	}

	var buf bytes.Buffer
	if err := encode(&buf, res, cfg.Format); err != nil {
		return err
	}
	if cfg.Output == "" {
		if _, err := a.outW.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else if err := writeFile(cfg.Output, buf.Bytes()); err != nil {
		return err
	}

	if cfg.Check && res.Failed(cfg.Strict) {
		return &FailedError{Runs: []string{res.Name}}
	}
	a.logger.Info("Template resolved.", "lines", len(res.Output.Lines), "files", len(res.Output.Files), "digest", res.Digest)
	return nil
}

// encode writes a resolved run in the given format.
func encode(w io.Writer, res *Result, format string) error {
	switch format {
	case FormatText:
		_, err := io.WriteString(w, res.Output.Text)
		return err
	case FormatYAML:
		return res.Doc.Encode(w, document.FormatYAML)
	default:
		return res.Doc.Encode(w, document.FormatJSON)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func absPaths(ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, absPath(p))
	}
	return out
}
