// Package cli defines the hammer command tree. Commands stay thin: they
// translate flags into an app.Config, construct the App, and delegate.
package cli

import (
	"context"
	"fmt"
	"io"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/vk/hammer/internal/app"
	"github.com/vk/hammer/internal/hclfront"
)

// ExitError carries a specific process exit code through the error chain.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// options holds the persistent flag values shared by every subcommand.
type options struct {
	outW io.Writer

	file      string
	varsFile  string
	defines   []string
	jobs      int
	logLevel  string
	logFormat string
}

// newApp expands user paths, validates the configuration and loads the
// build declarations.
func (o *options) newApp(ctx context.Context) (*app.App, error) {
	buildPath, err := homedir.Expand(o.file)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: fmt.Sprintf("expanding build path: %v", err)}
	}
	varsFile := o.varsFile
	if varsFile != "" {
		if varsFile, err = homedir.Expand(varsFile); err != nil {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("expanding vars file path: %v", err)}
		}
	}

	cfg, err := app.NewConfig(app.Config{
		BuildPath: buildPath,
		VarsFile:  varsFile,
		Defines:   o.defines,
		LogFormat: o.logFormat,
		LogLevel:  o.logLevel,
		Jobs:      o.jobs,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}

	return app.New(ctx, o.outW, cfg, hclfront.NewLoader())
}

// NewRootCmd assembles the command tree. All user-facing output goes to outW
// so tests can capture it.
func NewRootCmd(outW io.Writer) *cobra.Command {
	opts := &options{outW: outW}

	root := &cobra.Command{
		Use:   "hammer",
		Short: "A dependency-driven build tool",
		Long: `hammer builds file targets from declarative HCL build files: it resolves
the dependency graph, rebuilds only what is out of date, and runs tasks on
every invocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.file, "file", "f", "build.hcl", "Build file or directory of .hcl files")
	pf.StringVar(&opts.varsFile, "vars-file", "", "YAML file with variable bindings")
	pf.StringArrayVarP(&opts.defines, "define", "D", nil, "Variable binding NAME=value (repeatable)")
	pf.IntVarP(&opts.jobs, "jobs", "j", 1, "Number of concurrent workers")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newBuildCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newGraphCmd(opts))
	root.AddCommand(newCleanCmd(opts))
	return root
}
