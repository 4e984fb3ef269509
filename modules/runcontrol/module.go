// Package runcontrol checks the run-control fields of a configuration:
// simulated years, the grid cell range, spin-up length and restart files.
package runcontrol

import (
	"context"

	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// AllCells is the endgrid value selecting every cell of the grid.
const AllCells = "all"

// legacyAllCells is how older templates spelled AllCells.
const legacyAllCells = -1

type checker struct {
	root     *document.Object
	findings []registry.Finding
}

// Check validates the run-control fields.
func Check(_ context.Context, in *registry.Input) []registry.Finding {
	c := &checker{root: in.Doc.Root}

	if _, ok := c.root.Get("sim_name"); !ok {
		c.warn("missing-field", "sim_name", "run has no sim_name")
	}

	first, okFirst := c.year("firstyear")
	last, okLast := c.year("lastyear")
	if okFirst && okLast && first > last {
		c.errorf("range", "lastyear", "lastyear %d is before firstyear %d", last, first)
	}

	start, okStart := c.cell("startgrid")
	end, okEnd := c.cell("endgrid")
	if okStart && okEnd && start >= 0 && end >= 0 && start > end {
		c.errorf("range", "endgrid", "endgrid %d is before startgrid %d", end, start)
	}

	if v, ok := c.root.Get("nspinup"); ok {
		n, isInt := document.Int(v)
		switch {
		case !isInt:
			c.errorf("type", "nspinup", "must be an integer, got %s", document.TypeName(v))
		case n < 0:
			c.errorf("range", "nspinup", "must not be negative, got %d", n)
		}
	}

	if c.flag("restart") {
		c.filename("restart_filename", "restart")
	}
	if c.flag("write_restart") {
		c.filename("write_restart_filename", "write_restart")
		year, ok := c.year("restart_year")
		if ok && okFirst && okLast && (year < first || year > last) {
			c.errorf("range", "restart_year", "restart_year %d lies outside [%d, %d]", year, first, last)
		}
	}
	return c.findings
}

// year reads a required integer field.
func (c *checker) year(key string) (int64, bool) {
	v, ok := c.root.Get(key)
	if !ok {
		c.errorf("missing-field", key, "%s is missing", key)
		return 0, false
	}
	n, ok := document.Int(v)
	if !ok {
		c.errorf("type", key, "must be an integer, got %s", document.TypeName(v))
	}
	return n, ok
}

// cell reads a grid cell index. "all" yields -1.
func (c *checker) cell(key string) (int64, bool) {
	v, ok := c.root.Get(key)
	if !ok {
		return 0, false
	}
	if s, isString := v.(string); isString {
		if s == AllCells {
			return -1, true
		}
		c.errorf("unknown-value", key, "must be a cell index or %q, got %q", AllCells, s)
		return 0, false
	}
	n, ok := document.Int(v)
	if !ok {
		c.errorf("type", key, "must be an integer or %q, got %s", AllCells, document.TypeName(v))
		return 0, false
	}
	if n == legacyAllCells {
		c.warn("legacy-encoding", key, "%d used where %q is expected", n, AllCells)
		return -1, true
	}
	if n < 0 {
		c.errorf("range", key, "must not be negative, got %d", n)
		return 0, false
	}
	return n, true
}

// flag reads an optional boolean field.
func (c *checker) flag(key string) bool {
	v, ok := c.root.Get(key)
	if !ok {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if n, isInt := document.Int(v); isInt && (n == 0 || n == 1) {
		c.warn("legacy-encoding", key, "integer %d used where a boolean is expected", n)
		return n == 1
	}
	c.errorf("type", key, "must be a boolean, got %s", document.TypeName(v))
	return false
}

func (c *checker) filename(key, because string) {
	v, ok := c.root.Get(key)
	if !ok {
		c.errorf("missing-field", key, "%s is true but %s is missing", because, key)
		return
	}
	if s, isString := v.(string); !isString || s == "" {
		c.errorf("type", key, "must be a non-empty string")
	}
}

func (c *checker) errorf(code, key, format string, args ...any) {
	c.findings = append(c.findings, registry.Errorf(code, keypath.Root.Key(key), format, args...))
}

func (c *checker) warn(code, key, format string, args ...any) {
	c.findings = append(c.findings, registry.Warnf(code, keypath.Root.Key(key), format, args...))
}

// Register registers the check with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("runcontrol", &registry.RegisteredCheck{
		Description: "Years, grid range, spin-up and restart files are consistent.",
		Fn:          Check,
	})
}
