// Package runner defines the action contract and the two action flavors the
// engine ships: opaque host functions and shell commands.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/vk/hammer/internal/ctxlog"
	"github.com/vk/hammer/internal/interp"
	"github.com/vk/hammer/internal/vars"
)

// Invocation carries everything an action may consult: the node's resolved
// output path (or task name), its resolved dependency paths in declaration
// order, and the immutable variable bindings of the build.
type Invocation struct {
	Target string
	Deps   []string
	Vars   vars.Bindings
}

// Action is the unit of executable logic bound to a graph node. The engine
// treats actions as black boxes: a nil return means the node's output is in
// place, any error fails the node and aborts the build.
type Action interface {
	Run(ctx context.Context, inv Invocation) error
}

// FuncAction adapts plain Go logic into an Action. Go-level hosts use it for
// file-writing steps that need no external process.
type FuncAction func(ctx context.Context, inv Invocation) error

// Run implements Action.
func (f FuncAction) Run(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

// ShellAction runs a command template through the system shell. The template
// is interpolated first; spawning only happens once every placeholder has
// resolved. Child stdout and stderr are inherited from the engine process,
// deliberately unmanaged, and no stdin is supplied. Cancelling the context
// kills the child.
type ShellAction struct {
	Template string
}

// Run implements Action.
func (a *ShellAction) Run(ctx context.Context, inv Invocation) error {
	command, err := interp.Expand(a.Template, inv.Target, inv.Deps, inv.Vars)
	if err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Debug("running shell command", "command", command)

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q: %w", command, err)
	}
	return nil
}

// String returns the raw template, used by listings.
func (a *ShellAction) String() string {
	return a.Template
}
