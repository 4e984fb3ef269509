package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/lpjcfg/internal/ctxlog"
)

// ValidateRegistry checks that every registered check can run.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.order {
		check := r.checks[name]
		if check == nil || check.Fn == nil {
			errs = append(errs, fmt.Sprintf("check '%s': no Go function registered", name))
			continue
		}
		if check.Description == "" {
			logger.Warn("Check has no description.", "check", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
