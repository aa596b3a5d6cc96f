// Package vars implements the build-wide variable bindings: a name to value
// map populated once at build start and immutable for the rest of the run.
package vars

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Bindings maps variable names to their string values. Once a build
// invocation starts, a Bindings value must be treated as read-only; every
// mutating operation returns a fresh map.
type Bindings map[string]string

// UndefinedVariableError reports a reference to a variable that has no
// binding in the current build.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// New returns an empty set of bindings.
func New() Bindings {
	return Bindings{}
}

// Lookup resolves a variable by name. A missing name is an
// *UndefinedVariableError.
func (b Bindings) Lookup(name string) (string, error) {
	value, ok := b[name]
	if !ok {
		return "", &UndefinedVariableError{Name: name}
	}
	return value, nil
}

// Merge layers over on top of b and returns the combined bindings as a new
// map. Neither input is modified.
func (b Bindings) Merge(over Bindings) Bindings {
	merged := make(Bindings, len(b)+len(over))
	for name, value := range b {
		merged[name] = value
	}
	for name, value := range over {
		merged[name] = value
	}
	return merged
}

// ParsePairs parses command-line bindings of the form NAME=value, analogous
// to -D flags of classic build tools. Later pairs win over earlier ones.
func ParsePairs(pairs []string) (Bindings, error) {
	b := make(Bindings, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed variable binding %q, expected NAME=value", pair)
		}
		b[name] = value
	}
	return b, nil
}

// LoadYAMLFile reads variable bindings from a YAML mapping of names to scalar
// values. Non-scalar values are rejected.
func LoadYAMLFile(path string) (Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vars file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing vars file %s: %w", path, err)
	}

	b := make(Bindings, len(raw))
	for name, value := range raw {
		switch value.(type) {
		case string, int, int64, uint64, float64, bool:
			b[name] = fmt.Sprintf("%v", value)
		default:
			return nil, fmt.Errorf("vars file %s: value of %q is not a scalar", path, name)
		}
	}
	return b, nil
}
