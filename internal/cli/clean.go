package cli

import (
	"github.com/spf13/cobra"
)

func newCleanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [ROOT...]",
		Short: "Remove target output files",
		Long: `Clean removes the output files of the given target roots and their
transitive target dependencies. Without arguments it removes every declared
target output. Source files are never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Clean(cmd.Context(), args...)
		},
	}
}
