// Package hclfront is the HCL host front end: it turns *.hcl build files
// into the format-agnostic config model the engine consumes. The engine core
// never sees HCL; any other front end producing the same model would do.
package hclfront

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/hammer/internal/config"
	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/vars"
)

// Loader parses HCL build files.
type Loader struct{}

// NewLoader returns an HCL build-file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// parsedFile pairs a decoded file with the directory its relative paths
// resolve against.
type parsedFile struct {
	dir  string
	root fileRoot
}

// Load reads the build file (or every .hcl file under a directory), merges
// variable defaults under the supplied overrides, evaluates each run
// template against the final bindings, and returns the declaration model
// together with those bindings.
func (l *Loader) Load(ctx context.Context, path string, overrides vars.Bindings) (*config.Model, vars.Bindings, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findBuildFiles(path)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .hcl build files found at %s", path)
	}
	logger.Debug("discovered build files", "count", len(files))

	parser := hclparse.NewParser()
	var parsed []parsedFile
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("parsing %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("decoding %s: %w", file, diags)
		}
		parsed = append(parsed, parsedFile{dir: filepath.Dir(file), root: root})
	}

	model := &config.Model{}

	// First pass: variable defaults and the set of declared task names, so
	// dependency strings can be told apart from file paths.
	taskNames := make(map[string]bool)
	for _, pf := range parsed {
		for _, v := range pf.root.Variables {
			def, err := evalDefault(v)
			if err != nil {
				return nil, nil, err
			}
			model.Variables = append(model.Variables, &config.Variable{Name: v.Name, Default: def})
		}
		for _, t := range pf.root.Tasks {
			taskNames[t.Name] = true
		}
	}

	bindings := defaultsOf(model.Variables).Merge(overrides)

	// Second pass: translate targets and tasks, resolving relative paths
	// against the declaring file and evaluating run templates.
	for _, pf := range parsed {
		for _, t := range pf.root.Targets {
			run, err := evalRun(t.Run, bindings)
			if err != nil {
				return nil, nil, fmt.Errorf("target %q: %w", t.Path, err)
			}
			model.Targets = append(model.Targets, &config.Target{
				Path: resolvePath(pf.dir, t.Path),
				Deps: resolveDeps(pf.dir, t.Deps, taskNames),
				Run:  run,
			})
		}
		for _, t := range pf.root.Tasks {
			run, err := evalRun(t.Run, bindings)
			if err != nil {
				return nil, nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
			model.Tasks = append(model.Tasks, &config.Task{
				Name: t.Name,
				Deps: resolveDeps(pf.dir, t.Deps, taskNames),
				Run:  run,
			})
		}
	}

	logger.Debug("build files loaded",
		"targets", len(model.Targets), "tasks", len(model.Tasks), "variables", len(model.Variables))
	return model, bindings, nil
}

func defaultsOf(variables []*config.Variable) vars.Bindings {
	b := vars.New()
	for _, v := range variables {
		b[v.Name] = v.Default
	}
	return b
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// resolveDeps canonicalizes dependency references: declared task names pass
// through unchanged, everything else is treated as a path relative to the
// declaring file.
func resolveDeps(dir string, deps []string, taskNames map[string]bool) []string {
	resolved := make([]string, 0, len(deps))
	for _, dep := range deps {
		if taskNames[dep] {
			resolved = append(resolved, dep)
			continue
		}
		resolved = append(resolved, resolvePath(dir, dep))
	}
	return resolved
}

// findBuildFiles accepts a single .hcl file or a directory and returns the
// sorted list of build files to load.
func findBuildFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing build path %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
