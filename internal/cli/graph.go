package cli

import (
	"github.com/spf13/cobra"
)

func newGraphCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "graph ROOT",
		Short: "Print the execution order for a root, dependencies first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.PrintOrder(cmd.Context(), args[0])
		},
	}
}
