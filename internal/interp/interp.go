// Package interp expands command templates into literal shell commands.
//
// Two placeholder families are recognized. ${NAME} references a build
// variable; {dep0}..{depN}, {deps} and {target} reference the resolved
// dependency and output paths of the node being built. Variables are
// substituted first, so a variable's value may itself contain a path
// placeholder. Each path is inserted as a single token; the interpolator
// never splits, quotes or escapes anything on the action author's behalf.
package interp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/hammer/internal/vars"
)

var (
	varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	refPattern = regexp.MustCompile(`\{(target|deps|dep[0-9]+)\}`)
)

// Expand resolves all placeholders in template. target is the node's output
// path (or task name), deps the ordered resolved dependency paths. A
// reference to an unbound variable is a *vars.UndefinedVariableError; a
// {depN} index past the end of deps is an error naming the reference.
func Expand(template, target string, deps []string, bindings vars.Bindings) (string, error) {
	expanded, err := expandVariables(template, bindings)
	if err != nil {
		return "", err
	}
	return expandRefs(expanded, target, deps)
}

func expandVariables(template string, bindings vars.Bindings) (string, error) {
	var firstErr error
	expanded := varPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		value, err := bindings.Lookup(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return expanded, nil
}

func expandRefs(template, target string, deps []string) (string, error) {
	var firstErr error
	expanded := refPattern.ReplaceAllStringFunc(template, func(match string) string {
		ref := refPattern.FindStringSubmatch(match)[1]
		switch {
		case ref == "target":
			return target
		case ref == "deps":
			return strings.Join(deps, " ")
		default:
			index, _ := strconv.Atoi(ref[len("dep"):])
			if index >= len(deps) {
				if firstErr == nil {
					firstErr = fmt.Errorf("reference %s is out of range: node has %d dependencies", match, len(deps))
				}
				return match
			}
			return deps[index]
		}
	})
	if firstErr != nil {
		return "", firstErr
	}
	return expanded, nil
}
