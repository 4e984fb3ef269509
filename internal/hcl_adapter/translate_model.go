// This file contains the logic for translating HCL schema structs into the
// format-agnostic matrix model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/keypath"
)

// translateRun converts the HCL-specific run schema into the agnostic model.
func (l *Loader) translateRun(ctx context.Context, file string, b *RunBlock) (*config.Run, error) {
	ctx = ctxlog.With(ctx, "run", b.Name)
	logger := ctxlog.FromContext(ctx)

	run := &config.Run{
		Name:      b.Name,
		Defines:   []string{b.Name},
		Undefines: b.Undefines,
		File:      file,
	}
	if isExprDefined(ctx, b.Defines, "defines") {
		var defines []string
		if diags := gohcl.DecodeExpression(b.Defines, nil, &defines); diags.HasErrors() {
			return nil, fmt.Errorf("run %q: invalid defines: %w", b.Name, diags)
		}
		run.Defines = defines
	} else {
		logger.Debug("`defines` not set, defining the run name.")
	}

	for _, e := range b.Expects {
		exp, err := translateExpectation(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("run %q: %w", b.Name, err)
		}
		run.Expectations = append(run.Expectations, exp)
	}
	return run, nil
}

func translateExpectation(ctx context.Context, e *ExpectBlock) (*config.Expectation, error) {
	path, err := keypath.Parse(e.Path)
	if err != nil {
		return nil, fmt.Errorf("expect %q: %w", e.Path, err)
	}
	exp := &config.Expectation{Path: path, Length: e.Length, Present: e.Present}
	if isExprDefined(ctx, e.Equals, "equals") {
		val, diags := e.Equals.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("expect %q: invalid equals value: %w", e.Path, diags)
		}
		exp.Equals = &val
	}
	if exp.Equals == nil && exp.Length == nil && exp.Present == nil {
		return nil, fmt.Errorf("expect %q: needs at least one of equals, length or present", e.Path)
	}
	if exp.Length != nil && *exp.Length < 0 {
		return nil, fmt.Errorf("expect %q: length must not be negative", e.Path)
	}
	return exp, nil
}

func translateRule(r *PFTRule) (*config.Rule, error) {
	field, err := keypath.Parse(r.Field)
	if err != nil {
		return nil, fmt.Errorf("pft_rule %q: %w", r.Field, err)
	}
	if field.IsRoot() {
		return nil, fmt.Errorf("pft_rule %q: field must not be empty", r.Field)
	}
	rule := &config.Rule{Field: field, Required: true, Min: r.Min, Max: r.Max}
	if r.Required != nil {
		rule.Required = *r.Required
	}
	if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
		return nil, fmt.Errorf("pft_rule %q: min %g exceeds max %g", r.Field, *rule.Min, *rule.Max)
	}
	return rule, nil
}
