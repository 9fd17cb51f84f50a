package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

func newCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <address>",
		Short: "Close an escrow account",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			addr, err := escrow.ParsePubkey(args[0])
			if err != nil {
				return err
			}

			result, err := a.service.Close(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return a.printer.printResult("closed", result)
		}),
	}
}
