package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/graph"
	"github.com/vk/hammer/internal/scheduler"
	"github.com/vk/hammer/internal/stale"
)

// Run resolves the requested roots and executes the resulting subgraph.
// Fresh targets are skipped, stale ones rebuilt, tasks always run. The first
// action failure aborts the invocation; completed outputs stay in place, so
// a re-run after a fix resumes from the partial state.
func (a *App) Run(ctx context.Context, roots ...string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	g, err := a.registry.Resolve(ctx, roots...)
	if err != nil {
		return err
	}

	a.logger.Info("starting build", "roots", roots, "nodes", len(g.Nodes), "jobs", a.cfg.Jobs)
	sched := scheduler.New(stale.NewOracle(), a.bindings, a.cfg.Jobs)
	if err := sched.Run(ctx, g); err != nil {
		return err
	}
	a.logger.Info("build finished")
	return nil
}

// List writes every declared node with its kind and dependencies.
func (a *App) List() {
	for _, node := range a.registry.Nodes() {
		fmt.Fprintf(a.outW, "%s\t%s", node.Kind, node.ID)
		if len(node.Deps) > 0 {
			fmt.Fprintf(a.outW, "\t<- %v", node.Deps)
		}
		fmt.Fprintln(a.outW)
	}
}

// PrintOrder resolves the given root and writes its topological execution
// order, dependencies first.
func (a *App) PrintOrder(ctx context.Context, root string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	g, err := a.registry.Resolve(ctx, root)
	if err != nil {
		return err
	}
	for _, id := range g.Order {
		fmt.Fprintln(a.outW, id)
	}
	return nil
}

// Clean removes the output files of the given target roots and everything
// they transitively depend on. Without roots it removes every declared
// target output. Source files are never touched.
func (a *App) Clean(ctx context.Context, roots ...string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	var targets []*graph.Node
	if len(roots) == 0 {
		for _, node := range a.registry.Nodes() {
			targets = append(targets, node)
		}
	} else {
		g, err := a.registry.Resolve(ctx, roots...)
		if err != nil {
			return err
		}
		for _, id := range g.Order {
			targets = append(targets, g.Nodes[id])
		}
	}

	for _, node := range targets {
		if node.Kind != graph.KindTarget {
			continue
		}
		if err := os.Remove(node.ID); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("removing %s: %w", node.ID, err)
		}
		a.logger.Info("removed target output", "path", node.ID)
	}
	return nil
}
