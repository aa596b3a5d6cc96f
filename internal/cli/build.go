package cli

import (
	"github.com/spf13/cobra"
)

func newBuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build [ROOT...]",
		Short: "Build the given roots and their dependencies",
		Long: `Build resolves the requested roots (targets by path, tasks by name),
rebuilds every stale target in dependency order and runs every reached task.
Without arguments it builds the node named "all".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = []string{"all"}
			}
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Run(cmd.Context(), roots...)
		},
	}
}
