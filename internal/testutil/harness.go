package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vk/lpjcfg/internal/app"
	"github.com/vk/lpjcfg/internal/hcl_adapter"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Stdout    string
	LogOutput string
	Err       error
	// Root is the temporary directory holding the test files.
	Root string
}

// RunApp provides a standardized harness for running the application
// against a file tree using a default background context.
func RunApp(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunAppWithContext(context.Background(), t, files, cfg)
}

// RunAppWithContext writes files below a temporary root, resolves the
// relative paths of cfg against that root and runs the app.
func RunAppWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	root := WriteTree(t, files)
	rebase := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	cfg.Template = rebase(cfg.Template)
	cfg.Output = rebase(cfg.Output)
	cfg.OutputDir = rebase(cfg.OutputDir)
	for i := range cfg.MatrixPaths {
		cfg.MatrixPaths[i] = rebase(cfg.MatrixPaths[i])
	}
	for i := range cfg.IncludeDirs {
		cfg.IncludeDirs[i] = rebase(cfg.IncludeDirs[i])
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return &HarnessResult{Err: err, Root: root}
	}

	stdout := &SafeBuffer{}
	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(stdout, logBuffer, appConfig, hcl_adapter.NewLoader())
	runErr := testApp.Run(ctx)

	if os.Getenv("LPJCFG_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Stdout:    stdout.String(),
		LogOutput: logBuffer.String(),
		Err:       runErr,
		Root:      root,
	}
}
