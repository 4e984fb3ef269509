package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/ctxlog"
)

// runMatrix resolves every run of the matrix concurrently, prints one
// summary per run and fails if any run failed.
func (a *App) runMatrix(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	model, conv, err := a.loader.Load(ctx, a.config.MatrixPaths...)
	if err != nil {
		return fmt.Errorf("failed to load matrix: %w", err)
	}
	if len(model.Runs) == 0 {
		return errors.New("the matrix declares no runs")
	}
	jobs := a.matrixJobs(model)
	logger.Info("🚀 Resolving matrix.", "template", model.Template, "runs", len(jobs), "workers", a.config.WorkerCount)

	results := make([]*Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.WorkerCount)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = a.resolve(ctxlog.With(gctx, "run", j.Name), j, conv)
			return nil
		})
	}
	// Workers never fail; a run's error lives in its Result.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	var failed []string
	for _, res := range results {
		if res.Err == nil && a.config.OutputDir != "" {
			var buf bytes.Buffer
			if err := encode(&buf, res, a.config.Format); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(a.config.OutputDir, outputName(res.Name, a.config.Format)), buf.Bytes()); err != nil {
				return err
			}
		}
		if res.Failed(a.config.Strict) {
			failed = append(failed, res.Name)
		}
	}

	printSummary(a.outW, results, a.config.Strict)
	logger.Info("🏁 Matrix finished.", "runs", len(results), "failed", len(failed))
	if len(failed) > 0 {
		return &FailedError{Runs: failed}
	}
	return nil
}

// matrixJobs layers the definitions of the matrix, the command line and
// each run, in that order.
func (a *App) matrixJobs(model *config.Model) []*job {
	cfg := a.config
	includeDirs := absPaths(append(append([]string(nil), model.IncludeDirs...), cfg.IncludeDirs...))

	jobs := make([]*job, 0, len(model.Runs))
	for _, run := range model.Runs {
		jobs = append(jobs, &job{
			Name:         run.Name,
			Template:     absPath(model.Template),
			IncludeDirs:  includeDirs,
			Defines:      concat(model.Defines, cfg.Defines, run.Defines),
			Undefines:    concat(model.Undefines, cfg.Undefines, run.Undefines),
			Lenient:      model.Lenient || cfg.Lenient,
			Parse:        true,
			Check:        true,
			Rules:        model.Rules,
			Expectations: run.Expectations,
		})
	}
	return jobs
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// outputName maps a run name to a file name in the output directory.
func outputName(run, format string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(run)
	switch format {
	case FormatYAML:
		return name + ".yaml"
	case FormatText:
		return name + ".txt"
	default:
		return name + ".json"
	}
}
