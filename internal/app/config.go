package app

import "errors"

// Config holds everything an App needs to run one build invocation.
type Config struct {
	// BuildPath is a single .hcl build file or a directory of them.
	BuildPath string
	// VarsFile is an optional YAML file of variable bindings.
	VarsFile string
	// Defines are NAME=value bindings from the command line; they win over
	// the vars file, which wins over build-file defaults.
	Defines []string

	LogFormat string
	LogLevel  string
	// Jobs is the worker count; 1 executes the graph serially.
	Jobs int
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.BuildPath == "" {
		return nil, errors.New("build path must not be empty")
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return &cfg, nil
}
