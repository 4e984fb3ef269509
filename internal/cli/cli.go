package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/vk/lpjcfg/internal/app"
)

// DefaultEnvFile is read when present and no --env-file is given.
const DefaultEnvFile = ".env"

// RootEnv names the LPJmL installation directory. Its top level and its
// par/ directory are searched for includes after every -I directory.
const RootEnv = "LPJROOT"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Parse processes command-line arguments against the process environment.
// It returns a populated Config, a boolean indicating if the program should
// exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseWithEnv(args, output, os.LookupEnv)
}

// ParseWithEnv is Parse with an explicit environment.
func ParseWithEnv(args []string, output io.Writer, lookup LookupFunc) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("lpjcfg", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
lpjcfg - resolve and check LPJmL run configurations.

Usage:
  lpjcfg [options] TEMPLATE
  lpjcfg [options] --matrix FILE|DIR

Arguments:
  TEMPLATE
    Path to a configuration template (JSON with preprocessor directives).

Options:
`)
		flagSet.PrintDefaults()
	}

	defines := flagSet.StringArrayP("define", "D", nil, "Define NAME or NAME=VALUE before resolving. Repeatable.")
	undefines := flagSet.StringArrayP("undefine", "U", nil, "Remove a definition. Repeatable.")
	includeDirs := flagSet.StringArrayP("include-dir", "I", nil, "Add a directory to the #include search path. Repeatable.")
	matrix := flagSet.StringArrayP("matrix", "m", nil, "Resolve the runs of an HCL matrix file or directory. Repeatable.")
	outputFlag := flagSet.StringP("output", "o", "", "Write the resolved document to FILE instead of stdout.")
	outputDir := flagSet.String("output-dir", "", "Write every matrix run to DIR/<run>.<ext>.")
	format := flagSet.StringP("format", "f", app.FormatJSON, "Output format. Options: 'json', 'yaml' or 'text'.")
	check := flagSet.Bool("check", false, "Check the resolved document and fail on errors.")
	lenient := flagSet.Bool("lenient", false, "Drop trailing commas instead of rejecting them.")
	strict := flagSet.Bool("strict", false, "Fail on warnings too. Implies --check.")
	workers := flagSet.Int("workers", app.DefaultWorkerCount, "Number of matrix runs resolved concurrently.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	envFile := flagSet.String("env-file", "", "Read environment variables such as "+RootEnv+" from FILE (default "+DefaultEnvFile+" if present).")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected one template, got %d: %s", flagSet.NArg(), strings.Join(flagSet.Args(), " "))}
	}
	template := flagSet.Arg(0)
	if template == "" && len(*matrix) == 0 {
		slog.Debug("No template or matrix provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	env, err := readEnvFile(*envFile)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	dirs := append([]string(nil), *includeDirs...)
	if root := lookupEnv(lookup, env, RootEnv); root != "" {
		slog.Debug("Adding LPJmL root to the include path.", "root", root)
		dirs = append(dirs, root, filepath.Join(root, "par"))
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Template:    template,
		MatrixPaths: *matrix,
		Defines:     *defines,
		Undefines:   *undefines,
		IncludeDirs: dirs,
		Output:      *outputFlag,
		OutputDir:   *outputDir,
		Format:      *format,
		Check:       *check || *strict,
		Lenient:     *lenient,
		Strict:      *strict,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: *workers,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// readEnvFile reads an env file. The default file may be absent; an
// explicitly named one may not.
func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return env, nil
}

// lookupEnv prefers the real environment over the env file, as
// godotenv.Load does.
func lookupEnv(lookup LookupFunc, file map[string]string, key string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return file[key]
}
