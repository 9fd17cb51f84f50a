package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

func newShowCmd() *cobra.Command {
	var raw bool

	showCmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Show an escrow account",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			addr, err := escrow.ParsePubkey(args[0])
			if err != nil {
				return err
			}

			if raw {
				data, err := a.service.Raw(cmd.Context(), addr)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), hex.Dump(data))
				return nil
			}

			account, err := a.service.Get(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return a.printer.printEscrow(*account)
		}),
	}

	showCmd.Flags().BoolVar(&raw, "raw", false, "Print a hex dump of the stored bytes")
	return showCmd
}
