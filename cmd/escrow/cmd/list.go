package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

func newListCmd() *cobra.Command {
	var maker, mintA, mintB escrow.Pubkey

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List escrow accounts",
		Long: `List escrow accounts sorted by address.

Examples:
  escrow list
  escrow list --maker <pubkey> -o json`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			var filter service.Filter
			if cmd.Flags().Changed("maker") {
				filter.Maker = &maker
			}
			if cmd.Flags().Changed("mint-a") {
				filter.MintA = &mintA
			}
			if cmd.Flags().Changed("mint-b") {
				filter.MintB = &mintB
			}

			list, err := a.service.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.printer.printEscrows(list)
		}),
	}

	listCmd.Flags().Var(&pubkeyValue{key: &maker}, "maker", "Only escrows created by this maker")
	listCmd.Flags().Var(&pubkeyValue{key: &mintA}, "mint-a", "Only escrows depositing this mint")
	listCmd.Flags().Var(&pubkeyValue{key: &mintB}, "mint-b", "Only escrows requesting this mint")
	return listCmd
}
