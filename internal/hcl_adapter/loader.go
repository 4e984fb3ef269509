package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/fsutil"
)

// ErrNoFiles is returned when none of the given paths holds a matrix file.
var ErrNoFiles = errors.New("no .hcl matrix files found")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL matrix loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every matrix file found under paths and merges them into one
// model. Directories are searched recursively for *.hcl files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(hclFiles) == 0 {
		return nil, nil, ErrNoFiles
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := &config.Model{}
	templateFile := ""
	seenRuns := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Template != nil {
			if templateFile != "" {
				return nil, nil, fmt.Errorf("%s: template already declared in %s", file, templateFile)
			}
			model.Template = resolvePath(file, *root.Template)
			templateFile = file
		}
		model.IncludeDirs = append(model.IncludeDirs, resolvePaths(file, root.IncludeDirs)...)
		model.Defines = append(model.Defines, root.Defines...)
		model.Undefines = append(model.Undefines, root.Undefines...)
		if root.Lenient != nil && *root.Lenient {
			model.Lenient = true
		}

		for _, rule := range root.Rules {
			r, err := translateRule(rule)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Rules = append(model.Rules, r)
		}
		for _, block := range root.Runs {
			if prev, dup := seenRuns[block.Name]; dup {
				return nil, nil, fmt.Errorf("%s: run %q already declared in %s", file, block.Name, prev)
			}
			seenRuns[block.Name] = file
			run, err := l.translateRun(ctx, file, block)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Runs = append(model.Runs, run)
		}
	}

	if model.Template == "" {
		return nil, nil, errors.New("no template declared in the matrix")
	}

	logger.Debug("HCL loading complete.", "template", model.Template, "runs", len(model.Runs), "rules", len(model.Rules))
	return model, NewConverter(), nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. A path that does not exist is an error: matrix paths are
// always named explicitly.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, wasSeen := seen[abs]; !wasSeen {
			allFiles = append(allFiles, abs)
			seen[abs] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return allFiles, nil
}
