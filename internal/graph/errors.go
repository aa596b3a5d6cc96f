package graph

import (
	"fmt"
	"strings"
)

// DuplicateNodeError reports a second declaration of an already known node.
type DuplicateNodeError struct {
	ID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q is already declared", e.ID)
}

// UnknownDependencyError reports a dependency that is neither a declared
// node nor an existing file on disk. A Referrer of "" means the unknown
// identifier was requested as a build root.
type UnknownDependencyError struct {
	Referrer   string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unknown build root %q", e.Dependency)
	}
	return fmt.Sprintf("node %q depends on %q, which is neither declared nor an existing file", e.Referrer, e.Dependency)
}

// CyclicDependencyError reports a dependency cycle. Chain holds the
// participating node IDs in dependency order, with the first node repeated
// at the end to close the loop.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Chain, " -> "))
}
