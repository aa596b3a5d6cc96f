// Package graph implements the dependency graph of a build: node
// declaration, resolution of the transitive closure reachable from the
// requested roots, and detection of declaration errors before anything runs.
package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/runner"
)

// Kind distinguishes the three node flavors the engine schedules.
type Kind int

const (
	// KindTarget nodes produce a file and are rebuilt only when stale.
	KindTarget Kind = iota
	// KindTask nodes have no durable output and run on every invocation.
	KindTask
	// KindSource nodes are plain input files that were never declared.
	// They carry no action and only contribute a fingerprint.
	KindSource
)

// String returns the kind name used in logs and listings.
func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindTask:
		return "task"
	case KindSource:
		return "source"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a single vertex of a build graph. Targets are identified by their
// canonical absolute output path, tasks by their symbolic name. Deps holds
// resolved node IDs in declaration order.
type Node struct {
	ID     string
	Kind   Kind
	Deps   []string
	Action runner.Action
}

// Registry collects node declarations for one build invocation. It is the
// registration API a host front end writes into; Resolve turns it into an
// executable BuildGraph.
type Registry struct {
	nodes map[string]*Node
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// DeclareTarget registers a file-producing node. The output path and all
// path-like dependencies are canonicalized to absolute paths. Declaring the
// same output twice is a *DuplicateNodeError.
func (r *Registry) DeclareTarget(path string, deps []string, action runner.Action) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("canonicalizing target path %q: %w", path, err)
	}
	return r.declare(&Node{ID: abs, Kind: KindTarget, Deps: deps, Action: action})
}

// DeclareTask registers a named node without a durable output. Declaring the
// same name twice is a *DuplicateNodeError.
func (r *Registry) DeclareTask(name string, deps []string, action runner.Action) error {
	if name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	return r.declare(&Node{ID: name, Kind: KindTask, Deps: deps, Action: action})
}

func (r *Registry) declare(node *Node) error {
	if _, exists := r.nodes[node.ID]; exists {
		return &DuplicateNodeError{ID: node.ID}
	}
	r.nodes[node.ID] = node
	r.order = append(r.order, node.ID)
	return nil
}

// Node looks up a declared node by ID.
func (r *Registry) Node(id string) (*Node, bool) {
	node, ok := r.nodes[id]
	return node, ok
}

// Nodes returns all declared nodes in declaration order.
func (r *Registry) Nodes() []*Node {
	nodes := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		nodes = append(nodes, r.nodes[id])
	}
	return nodes
}

// BuildGraph is the induced subgraph for one invocation: the requested roots
// plus everything transitively reachable from them. Order is a deterministic
// topological ordering in which every dependency precedes its dependents.
type BuildGraph struct {
	Roots []string
	Nodes map[string]*Node
	Order []string
}

// Dependencies returns the resolved dependency nodes of the given node, in
// declaration order.
func (g *BuildGraph) Dependencies(node *Node) []*Node {
	deps := make([]*Node, 0, len(node.Deps))
	for _, id := range node.Deps {
		deps = append(deps, g.Nodes[id])
	}
	return deps
}

// visit markers for the depth-first resolution walk.
const (
	unvisited = iota
	visiting
	visited
)

// Resolve builds the BuildGraph for the given roots. Dependency identifiers
// are resolved in this order: a declared node ID, the declared node at the
// absolute form of a relative path, an existing file on disk (which becomes
// a source node), and finally *UnknownDependencyError. A cycle anywhere in
// the closure is a *CyclicDependencyError carrying the offending chain.
// Resolve has no side effects beyond graph construction; no action runs.
func (r *Registry) Resolve(ctx context.Context, roots ...string) (*BuildGraph, error) {
	logger := ctxlog.FromContext(ctx)

	g := &BuildGraph{Nodes: make(map[string]*Node)}
	state := make(map[string]int)

	for _, root := range roots {
		id, ok := r.lookupID(root)
		if !ok {
			return nil, &UnknownDependencyError{Dependency: root}
		}
		g.Roots = append(g.Roots, id)
		if err := r.visit(ctx, id, state, nil, g); err != nil {
			return nil, err
		}
	}

	logger.Debug("resolved build graph",
		"roots", g.Roots, "nodes", len(g.Nodes))
	return g, nil
}

// lookupID maps a user-supplied identifier to a declared node ID, trying the
// raw form first and the absolute path form second.
func (r *Registry) lookupID(id string) (string, bool) {
	if _, ok := r.nodes[id]; ok {
		return id, true
	}
	if abs, err := filepath.Abs(id); err == nil {
		if _, ok := r.nodes[abs]; ok {
			return abs, true
		}
	}
	return id, false
}

func (r *Registry) visit(ctx context.Context, id string, state map[string]int, stack []string, g *BuildGraph) error {
	switch state[id] {
	case visited:
		return nil
	case visiting:
		return &CyclicDependencyError{Chain: cycleChain(stack, id)}
	}

	node := r.nodes[id]
	state[id] = visiting
	stack = append(stack, id)

	for _, dep := range node.Deps {
		depID, err := r.resolveDep(ctx, id, dep, g)
		if err != nil {
			return err
		}
		if err := r.visit(ctx, depID, state, stack, g); err != nil {
			return err
		}
	}

	state[id] = visited
	g.Nodes[id] = node
	g.Order = append(g.Order, id)
	return nil
}

// resolveDep canonicalizes one dependency reference of the given node and,
// for undeclared files that exist on disk, materializes a source node. It
// also rewrites the referring node's dependency list in place so that the
// graph carries only canonical IDs.
func (r *Registry) resolveDep(ctx context.Context, nodeID, dep string, g *BuildGraph) (string, error) {
	if id, ok := r.lookupID(dep); ok {
		r.rewriteDep(nodeID, dep, id)
		return id, nil
	}

	abs, err := filepath.Abs(dep)
	if err != nil {
		return "", fmt.Errorf("canonicalizing dependency %q of %q: %w", dep, nodeID, err)
	}
	if _, statErr := os.Stat(abs); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", &UnknownDependencyError{Referrer: nodeID, Dependency: dep}
		}
		return "", fmt.Errorf("checking dependency %q of %q: %w", dep, nodeID, statErr)
	}

	if _, exists := r.nodes[abs]; !exists {
		ctxlog.FromContext(ctx).Debug("treating undeclared dependency as source file", "path", abs)
		r.nodes[abs] = &Node{ID: abs, Kind: KindSource}
		r.order = append(r.order, abs)
	}
	r.rewriteDep(nodeID, dep, abs)
	return abs, nil
}

func (r *Registry) rewriteDep(nodeID, from, to string) {
	if from == to {
		return
	}
	node := r.nodes[nodeID]
	for i, dep := range node.Deps {
		if dep == from {
			node.Deps[i] = to
		}
	}
}

// cycleChain slices the DFS stack down to the cycle itself and closes it by
// repeating the entry node.
func cycleChain(stack []string, entry string) []string {
	for i, id := range stack {
		if id == entry {
			chain := append([]string{}, stack[i:]...)
			return append(chain, entry)
		}
	}
	// entry not on the stack means the node depends on itself.
	return []string{entry, entry}
}
