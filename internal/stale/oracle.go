// Package stale decides whether a target's recorded output is up to date
// relative to its dependencies. Fingerprints are file modification times read
// from the filesystem; no separate durable store is kept.
package stale

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/graph"
)

// Fingerprint is the comparable marker recorded for a file. The zero value
// means the file does not exist (or could not be read).
type Fingerprint struct {
	mtime time.Time
}

// Missing reports whether the fingerprinted file was absent.
func (f Fingerprint) Missing() bool {
	return f.mtime.IsZero()
}

// NewerThan reports whether f is strictly newer than other. Equal
// fingerprints compare as not newer, so coarse-grained clocks do not force
// redundant rebuilds.
func (f Fingerprint) NewerThan(other Fingerprint) bool {
	return f.mtime.After(other.mtime)
}

// Oracle caches fingerprints for the duration of one build invocation. All
// methods are safe for concurrent use; the cache is the only mutable state
// and writes to it are serialized.
type Oracle struct {
	mu    sync.Mutex
	cache map[string]Fingerprint
}

// NewOracle returns an oracle with an empty fingerprint cache.
func NewOracle() *Oracle {
	return &Oracle{cache: make(map[string]Fingerprint)}
}

// Fingerprint returns the cached fingerprint of path, reading it from the
// filesystem on first use. A read failure other than absence is logged and
// yields the zero fingerprint, which conservatively marks dependents stale.
func (o *Oracle) Fingerprint(ctx context.Context, path string) Fingerprint {
	o.mu.Lock()
	defer o.mu.Unlock()

	if f, ok := o.cache[path]; ok {
		return f
	}
	f := o.stat(ctx, path)
	o.cache[path] = f
	return f
}

// Refresh re-reads the fingerprint of path after a successful rebuild and
// records it, replacing any cached value.
func (o *Oracle) Refresh(ctx context.Context, path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache[path] = o.stat(ctx, path)
}

func (o *Oracle) stat(ctx context.Context, path string) Fingerprint {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			ctxlog.FromContext(ctx).Warn("cannot read fingerprint, treating as stale",
				"path", path, "error", err)
		}
		return Fingerprint{}
	}
	return Fingerprint{mtime: info.ModTime()}
}

// IsStale reports whether the target node must be rebuilt. A target is stale
// when its output is missing, when any dependency is a task (tasks leave no
// fingerprint to compare against), or when any dependency's fingerprint is
// strictly newer than the output's. The check never mutates build state.
func (o *Oracle) IsStale(ctx context.Context, node *graph.Node, deps []*graph.Node) bool {
	if node.Kind != graph.KindTarget {
		return true
	}

	output := o.Fingerprint(ctx, node.ID)
	if output.Missing() {
		return true
	}

	for _, dep := range deps {
		if dep.Kind == graph.KindTask {
			return true
		}
		if o.Fingerprint(ctx, dep.ID).NewerThan(output) {
			return true
		}
	}
	return false
}
