// Package scheduler executes a resolved build graph in dependency order:
// serially by default, or across a worker pool when the invocation asks for
// more than one job. Either way, every dependency of a node finishes before
// the node starts.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/graph"
	"github.com/vk/hammer/internal/runner"
	"github.com/vk/hammer/internal/stale"
	"github.com/vk/hammer/internal/vars"
)

// ActionError reports the failure of one node's action. The build aborts on
// the first ActionError; outputs of already-completed nodes stay on disk.
type ActionError struct {
	NodeID string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.NodeID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Scheduler runs build graphs. It owns no state across invocations beyond
// the staleness oracle handed to it.
type Scheduler struct {
	oracle   *stale.Oracle
	bindings vars.Bindings
	jobs     int
}

// New creates a scheduler. jobs values below one run the build serially.
func New(oracle *stale.Oracle, bindings vars.Bindings, jobs int) *Scheduler {
	if jobs < 1 {
		jobs = 1
	}
	return &Scheduler{oracle: oracle, bindings: bindings, jobs: jobs}
}

// Run executes the graph. Target nodes the oracle reports fresh are skipped
// without invoking their action; stale targets are rebuilt and their
// fingerprint refreshed; task nodes always run. The first failing node
// aborts the rest of the invocation and is reported as an *ActionError.
func (s *Scheduler) Run(ctx context.Context, g *graph.BuildGraph) error {
	if s.jobs > 1 {
		return s.runConcurrent(ctx, g)
	}
	for _, id := range g.Order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runNode(ctx, g, g.Nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// runNode executes a single node once all its dependencies have completed.
func (s *Scheduler) runNode(ctx context.Context, g *graph.BuildGraph, node *graph.Node) error {
	logger := ctxlog.FromContext(ctx).With("node", node.ID, "kind", node.Kind.String())

	switch node.Kind {
	case graph.KindSource:
		return nil

	case graph.KindTarget:
		if !s.oracle.IsStale(ctx, node, g.Dependencies(node)) {
			logger.Debug("target is up to date")
			return nil
		}
		logger.Info("building target")
		if dir := filepath.Dir(node.ID); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return &ActionError{NodeID: node.ID, Err: err}
			}
		}
		if err := s.invoke(ctx, node); err != nil {
			return err
		}
		s.oracle.Refresh(ctx, node.ID)
		return nil

	case graph.KindTask:
		logger.Info("running task")
		return s.invoke(ctx, node)

	default:
		return &ActionError{NodeID: node.ID, Err: fmt.Errorf("unknown node kind %v", node.Kind)}
	}
}

func (s *Scheduler) invoke(ctx context.Context, node *graph.Node) error {
	if node.Action == nil {
		return &ActionError{NodeID: node.ID, Err: fmt.Errorf("node has no action")}
	}
	inv := runner.Invocation{
		Target: node.ID,
		Deps:   append([]string{}, node.Deps...),
		Vars:   s.bindings,
	}
	if err := node.Action.Run(ctx, inv); err != nil {
		return &ActionError{NodeID: node.ID, Err: err}
	}
	return nil
}
