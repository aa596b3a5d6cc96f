package hclfront

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/hammer/internal/vars"
)

// evalDefault evaluates a variable block's default expression with no scope
// and converts the result to a string. A variable without a default binds to
// the empty string unless a vars file or -D pair overrides it.
func evalDefault(v *variableBlock) (string, error) {
	if v.Default == nil {
		return "", nil
	}
	value, diags := v.Default.Value(nil)
	if diags.HasErrors() {
		return "", fmt.Errorf("variable %q: evaluating default: %w", v.Name, diags)
	}
	if value.IsNull() {
		return "", nil
	}
	str, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", fmt.Errorf("variable %q: default is not convertible to string: %w", v.Name, err)
	}
	return str.AsString(), nil
}

// evalRun evaluates a run template against the final variable bindings, so
// HCL-level ${NAME} interpolation resolves at load time. A reference to a
// name with no binding is an *vars.UndefinedVariableError; no process has
// been spawned at this point. Engine placeholders ({dep0}, {target}) and
// escaped $${NAME} references survive into the returned string for the
// command interpolator to resolve at action time.
func evalRun(expr hcl.Expression, bindings vars.Bindings) (string, error) {
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := bindings[name]; !ok {
			return "", &vars.UndefinedVariableError{Name: name}
		}
	}

	value, diags := expr.Value(evalContext(bindings))
	if diags.HasErrors() {
		return "", fmt.Errorf("evaluating run template: %w", diags)
	}
	str, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", fmt.Errorf("run template is not convertible to string: %w", err)
	}
	return str.AsString(), nil
}

// evalContext exposes every binding as an HCL variable.
func evalContext(bindings vars.Bindings) *hcl.EvalContext {
	variables := make(map[string]cty.Value, len(bindings))
	for name, value := range bindings {
		variables[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{Variables: variables}
}
