// Package app wires one build invocation together: configuration, logging,
// front-end loading, graph declaration, and execution.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/hammer/internal/config"
	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/graph"
	"github.com/vk/hammer/internal/runner"
	"github.com/vk/hammer/internal/vars"
)

// Loader is the front-end contract: given a build path and variable
// overrides, produce the declaration model and the final bindings. The HCL
// loader is the shipped implementation; tests supply their own.
type Loader interface {
	Load(ctx context.Context, path string, overrides vars.Bindings) (*config.Model, vars.Bindings, error)
}

// App is a fully loaded build invocation, ready to resolve roots and run.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *graph.Registry
	bindings vars.Bindings
	model    *config.Model
}

// New loads the build declarations and registers them into a fresh graph
// registry. Declaration errors (duplicate nodes, unparsable files, undefined
// variables in run templates) surface here, before anything executes.
func New(ctx context.Context, outW io.Writer, cfg *Config, loader Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	overrides, err := collectOverrides(cfg)
	if err != nil {
		return nil, err
	}

	model, bindings, err := loader.Load(ctx, cfg.BuildPath, overrides)
	if err != nil {
		return nil, fmt.Errorf("loading build declarations: %w", err)
	}

	registry := graph.NewRegistry()
	for _, t := range model.Targets {
		if err := registry.DeclareTarget(t.Path, t.Deps, &runner.ShellAction{Template: t.Run}); err != nil {
			return nil, err
		}
	}
	for _, t := range model.Tasks {
		if err := registry.DeclareTask(t.Name, t.Deps, &runner.ShellAction{Template: t.Run}); err != nil {
			return nil, err
		}
	}
	logger.Debug("declarations registered",
		"targets", len(model.Targets), "tasks", len(model.Tasks))

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		registry: registry,
		bindings: bindings,
		model:    model,
	}, nil
}

// collectOverrides layers the vars file under the -D pairs.
func collectOverrides(cfg *Config) (vars.Bindings, error) {
	overrides := vars.New()
	if cfg.VarsFile != "" {
		fromFile, err := vars.LoadYAMLFile(cfg.VarsFile)
		if err != nil {
			return nil, err
		}
		overrides = overrides.Merge(fromFile)
	}
	fromFlags, err := vars.ParsePairs(cfg.Defines)
	if err != nil {
		return nil, err
	}
	return overrides.Merge(fromFlags), nil
}

// Registry exposes the declared nodes, primarily for listings and tests.
func (a *App) Registry() *graph.Registry {
	return a.registry
}

// Bindings returns the immutable variable bindings of this invocation.
func (a *App) Bindings() vars.Bindings {
	return a.bindings
}
