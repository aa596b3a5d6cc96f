package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all declared targets and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			a.List()
			return nil
		},
	}
}
