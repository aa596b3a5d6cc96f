// Package config defines the format-agnostic declaration model that front
// ends (HCL files today, anything else tomorrow) produce and the engine
// consumes. Nothing in here knows about HCL, the graph, or the scheduler.
package config

// Target declares a file-producing build step. The front end has already
// resolved Path against the declaring file's directory; every Deps entry is
// either such a path or the name of a declared task. Absolute
// canonicalization happens when the declaration enters the graph.
type Target struct {
	Path string
	Deps []string
	Run  string
}

// Task declares a named build step without a durable output. It is re-run on
// every invocation that reaches it.
type Task struct {
	Name string
	Deps []string
	Run  string
}

// Variable declares a named build parameter together with its default value.
// Defaults sit at the bottom of the precedence order; vars files and -D
// bindings override them.
type Variable struct {
	Name    string
	Default string
}

// Model is the complete set of declarations loaded for one build invocation.
// Slices preserve declaration order across files.
type Model struct {
	Targets   []*Target
	Tasks     []*Task
	Variables []*Variable
}
