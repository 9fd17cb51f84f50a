package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

func newMakeCmd() *cobra.Command {
	var (
		params  service.MakeParams
		receive string
	)

	makeCmd := &cobra.Command{
		Use:   "make <address>",
		Short: "Create an escrow account",
		Long: `Create a new escrow account at <address>.

Every field must be given; records have no default values.

With --decimals, --receive is read as a token amount and scaled to raw units.

Example:
  escrow make 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin \
    --seed 42 --maker <pubkey> --mint-a <pubkey> --mint-b <pubkey> \
    --receive 1000 --bump 254`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			addr, err := escrow.ParsePubkey(args[0])
			if err != nil {
				return err
			}
			params.Address = addr

			params.Receive, err = parseAmount(receive, a.printer.decimals)
			if err != nil {
				return err
			}

			result, err := a.service.Make(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer.printResult("created", result)
		}),
	}

	flags := makeCmd.Flags()
	flags.Uint64Var(&params.Seed, "seed", 0, "Seed used to derive the escrow address")
	flags.Var(&pubkeyValue{key: &params.Maker}, "maker", "Maker public key (base58)")
	flags.Var(&pubkeyValue{key: &params.MintA}, "mint-a", "Mint of the deposited token (base58)")
	flags.Var(&pubkeyValue{key: &params.MintB}, "mint-b", "Mint of the requested token (base58)")
	flags.StringVar(&receive, "receive", "", "Amount of mint B requested")
	flags.Uint8Var(&params.Bump, "bump", 0, "Address derivation bump")
	for _, name := range []string{"seed", "maker", "mint-a", "mint-b", "receive", "bump"} {
		_ = makeCmd.MarkFlagRequired(name)
	}

	return makeCmd
}
