package registry

import (
	"context"

	"github.com/vk/lpjcfg/internal/ctxlog"
)

// Run executes every registered check in registration order and collects
// their findings. Findings are stamped with the producing check's name.
func (r *Registry) Run(ctx context.Context, in *Input) *Report {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}
	for _, name := range r.order {
		if ctx.Err() != nil {
			break
		}
		findings := r.checks[name].Fn(ctx, in)
		for i := range findings {
			findings[i].Check = name
		}
		logger.Debug("Check finished.", "check", name, "findings", len(findings))
		report.Add(findings...)
	}
	return report
}
