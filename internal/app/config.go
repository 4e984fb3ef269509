package app

import (
	"errors"
	"fmt"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	// FormatText writes the preprocessed stream without parsing it.
	FormatText = "text"
)

// DefaultWorkerCount bounds concurrent matrix runs when none is configured.
const DefaultWorkerCount = 4

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Template selects single mode; MatrixPaths selects matrix mode.
	Template    string
	MatrixPaths []string

	Defines     []string // NAME or NAME=VALUE
	Undefines   []string
	IncludeDirs []string

	Output    string // single mode; stdout when empty
	OutputDir string // matrix mode; nothing is written when empty
	Format    string

	Check   bool
	Lenient bool
	Strict  bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch {
	case cfg.Template == "" && len(cfg.MatrixPaths) == 0:
		return nil, errors.New("a template or a matrix is required")
	case cfg.Template != "" && len(cfg.MatrixPaths) > 0:
		return nil, errors.New("a template and a matrix cannot be combined")
	case cfg.Output != "" && len(cfg.MatrixPaths) > 0:
		return nil, errors.New("--output is for single templates; use --output-dir with a matrix")
	case cfg.OutputDir != "" && cfg.Template != "":
		return nil, errors.New("--output-dir needs a matrix; use --output with a single template")
	}

	cfg.Format = strings.ToLower(cfg.Format)
	switch cfg.Format {
	case "":
		cfg.Format = FormatJSON
	case FormatJSON, FormatYAML, FormatText:
	default:
		return nil, fmt.Errorf("invalid format %q: must be 'json', 'yaml' or 'text'", cfg.Format)
	}

	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d", cfg.WorkerCount)
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	return &cfg, nil
}

// MatrixMode reports whether the config resolves a matrix.
func (c *Config) MatrixMode() bool {
	return len(c.MatrixPaths) > 0
}
