package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

func newSetCmd() *cobra.Command {
	var (
		seed    uint64
		maker   escrow.Pubkey
		mintA   escrow.Pubkey
		mintB   escrow.Pubkey
		receive string
		bump    uint8
	)

	setCmd := &cobra.Command{
		Use:   "set <address>",
		Short: "Update fields of an escrow account",
		Long: `Update one or more fields of an existing escrow account.

Only the flags given are written; either all of them are stored or none.

Example:
  escrow set <address> --receive 2500 --bump 253`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			addr, err := escrow.ParsePubkey(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var patch service.Patch
			if flags.Changed("seed") {
				patch.Seed = &seed
			}
			if flags.Changed("maker") {
				patch.Maker = &maker
			}
			if flags.Changed("mint-a") {
				patch.MintA = &mintA
			}
			if flags.Changed("mint-b") {
				patch.MintB = &mintB
			}
			if flags.Changed("receive") {
				amount, err := parseAmount(receive, a.printer.decimals)
				if err != nil {
					return err
				}
				patch.Receive = &amount
			}
			if flags.Changed("bump") {
				patch.Bump = &bump
			}
			if patch.IsEmpty() {
				return errors.New("nothing to update: pass at least one field flag")
			}

			result, err := a.service.Update(cmd.Context(), addr, patch)
			if err != nil {
				return err
			}
			return a.printer.printResult("updated", result)
		}),
	}

	flags := setCmd.Flags()
	flags.Uint64Var(&seed, "seed", 0, "New seed")
	flags.Var(&pubkeyValue{key: &maker}, "maker", "New maker public key (base58)")
	flags.Var(&pubkeyValue{key: &mintA}, "mint-a", "New mint A (base58)")
	flags.Var(&pubkeyValue{key: &mintB}, "mint-b", "New mint B (base58)")
	flags.StringVar(&receive, "receive", "", "New amount of mint B requested")
	flags.Uint8Var(&bump, "bump", 0, "New bump")

	return setCmd
}
