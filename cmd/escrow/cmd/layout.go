package cmd

import (
	"github.com/spf13/cobra"
)

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "layout",
		Short:       "Print the escrow record layout",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			return a.printer.printLayout()
		}),
	}
}
