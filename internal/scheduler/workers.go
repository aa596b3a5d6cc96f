package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/graph"
)

// execNode wraps a graph node with the bookkeeping the worker pool needs:
// a countdown of unfinished dependencies and the reverse edges used to
// release dependents and to skip them on failure.
type execNode struct {
	node       *graph.Node
	remaining  atomic.Int32
	skipOnce   sync.Once
	dependents []*execNode
}

// runConcurrent executes independent branches of the graph in parallel.
// Guarantees: a node is enqueued only after its last dependency completed,
// graph and staleness lookups are read-only during scheduling, and
// fingerprint refreshes are serialized inside the oracle.
func (s *Scheduler) runConcurrent(ctx context.Context, g *graph.BuildGraph) error {
	logger := ctxlog.FromContext(ctx)

	states := make(map[string]*execNode, len(g.Nodes))
	for id, node := range g.Nodes {
		states[id] = &execNode{node: node}
	}
	for _, st := range states {
		st.remaining.Store(int32(len(st.node.Deps)))
		for _, dep := range st.node.Deps {
			states[dep].dependents = append(states[dep].dependents, st)
		}
	}

	ready := make(chan *execNode, len(states))
	for _, id := range g.Order {
		if st := states[id]; st.remaining.Load() == 0 {
			ready <- st
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(len(states))

	var mu sync.Mutex
	var firstErr error
	fail := func(st *execNode, err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
		s.skipDependents(runCtx, st, &wg)
	}

	logger.Debug("starting worker pool", "workers", s.jobs, "nodes", len(states))
	for i := 0; i < s.jobs; i++ {
		go s.worker(runCtx, g, ready, fail, &wg)
	}

	wg.Wait()
	close(ready)

	return firstErr
}

func (s *Scheduler) worker(ctx context.Context, g *graph.BuildGraph, ready chan *execNode, fail func(*execNode, error), wg *sync.WaitGroup) {
	for st := range ready {
		if ctx.Err() != nil {
			// The run was aborted while this node sat in the queue. Its
			// dependents will never be released by a completion, so skip
			// them here to keep the WaitGroup draining.
			st.skipOnce.Do(func() {
				wg.Done()
				s.skipDependents(ctx, st, wg)
			})
			continue
		}

		if err := s.runNode(ctx, g, st.node); err != nil {
			fail(st, err)
			wg.Done()
			continue
		}

		for _, dependent := range st.dependents {
			if dependent.remaining.Add(-1) == 0 {
				ready <- dependent
			}
		}
		wg.Done()
	}
}

// skipDependents marks everything downstream of a failed node as not run,
// exactly once per node, so the WaitGroup still drains.
func (s *Scheduler) skipDependents(ctx context.Context, st *execNode, wg *sync.WaitGroup) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range st.dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("skipping node, upstream dependency failed",
				"node", dependent.node.ID, "failed", st.node.ID)
			wg.Done()
			s.skipDependents(ctx, dependent, wg)
		})
	}
}
