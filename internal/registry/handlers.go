package registry

import (
	"context"
	"fmt"
	"log/slog"
)

// CheckFunc inspects a resolved document and returns its findings.
type CheckFunc func(ctx context.Context, in *Input) []Finding

// RegisteredCheck holds a check's Go implementation.
type RegisteredCheck struct {
	Description string
	Fn          CheckFunc
}

// RegisterCheck registers a check under a unique name.
func (r *Registry) RegisterCheck(name string, check *RegisteredCheck) {
	if _, exists := r.checks[name]; exists {
		panic(fmt.Sprintf("check with name '%s' already registered", name))
	}
	slog.Debug("Registering check.", "name", name)
	r.checks[name] = check
	r.order = append(r.order, name)
}
