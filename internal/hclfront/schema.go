package hclfront

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes the top-level blocks of one build file.
type fileRoot struct {
	Variables []*variableBlock `hcl:"variable,block"`
	Targets   []*targetBlock   `hcl:"target,block"`
	Tasks     []*taskBlock     `hcl:"task,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// variableBlock declares a build variable and its optional default. The
// default is kept as an expression so non-string literals (numbers, bools)
// can be converted after evaluation.
type variableBlock struct {
	Name    string         `hcl:"name,label"`
	Default hcl.Expression `hcl:"default,optional"`
}

// targetBlock declares a file-producing build step. The run attribute stays
// an expression: HCL-level ${...} interpolation against the build variables
// happens at load time, while engine placeholders such as {dep0} and
// {target} pass through untouched. Writing $${NAME} defers a variable to
// action time.
type targetBlock struct {
	Path string         `hcl:"path,label"`
	Deps []string       `hcl:"deps,optional"`
	Run  hcl.Expression `hcl:"run"`
}

// taskBlock declares a named step that runs on every invocation.
type taskBlock struct {
	Name string         `hcl:"name,label"`
	Deps []string       `hcl:"deps,optional"`
	Run  hcl.Expression `hcl:"run"`
}
