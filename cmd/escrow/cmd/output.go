package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

// printer renders escrows as a table or JSON
type printer struct {
	out      io.Writer
	format   string
	decimals int32
}

func newPrinter(out io.Writer, format string, decimals int32) *printer {
	return &printer{out: out, format: format, decimals: decimals}
}

// escrowJSON is the JSON output form of an escrow account
type escrowJSON struct {
	Address       escrow.Pubkey `json:"address"`
	Seed          uint64        `json:"seed"`
	Maker         escrow.Pubkey `json:"maker"`
	MintA         escrow.Pubkey `json:"mint_a"`
	MintB         escrow.Pubkey `json:"mint_b"`
	Receive       uint64        `json:"receive"`
	ReceiveAmount string        `json:"receive_amount,omitempty"`
	Bump          uint8         `json:"bump"`
}

func (p *printer) toJSON(a service.Account) escrowJSON {
	out := escrowJSON{
		Address: a.Address,
		Seed:    a.Seed,
		Maker:   a.Maker,
		MintA:   a.MintA,
		MintB:   a.MintB,
		Receive: a.Receive,
		Bump:    a.Bump[0],
	}
	if p.decimals > 0 {
		out.ReceiveAmount = formatAmount(a.Receive, p.decimals)
	}
	return out
}

func (p *printer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEscrow displays a single escrow
func (p *printer) printEscrow(a service.Account) error {
	if p.format == "json" {
		return p.writeJSON(p.toJSON(a))
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Address:\t%s\n", a.Address)
	fmt.Fprintf(w, "Seed:\t%d\n", a.Seed)
	fmt.Fprintf(w, "Maker:\t%s\n", a.Maker)
	fmt.Fprintf(w, "Mint A:\t%s\n", a.MintA)
	fmt.Fprintf(w, "Mint B:\t%s\n", a.MintB)
	fmt.Fprintf(w, "Receive:\t%s\n", formatAmount(a.Receive, p.decimals))
	fmt.Fprintf(w, "Bump:\t%d\n", a.Bump[0])

	return nil
}

// printEscrows displays a list of escrows
func (p *printer) printEscrows(list []service.Account) error {
	if p.format == "json" {
		out := make([]escrowJSON, len(list))
		for i, a := range list {
			out[i] = p.toJSON(a)
		}
		return p.writeJSON(out)
	}

	if len(list) == 0 {
		fmt.Fprintln(p.out, "No escrows found")
		return nil
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ADDRESS\tSEED\tMAKER\tMINT A\tMINT B\tRECEIVE\tBUMP")
	for _, a := range list {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%d\n",
			a.Address, a.Seed, shortKey(a.Maker), shortKey(a.MintA), shortKey(a.MintB),
			formatAmount(a.Receive, p.decimals), a.Bump[0])
	}

	return nil
}

// printResult displays the outcome of a mutation
func (p *printer) printResult(action string, r *service.Result) error {
	if p.format == "json" {
		return p.writeJSON(struct {
			Action string     `json:"action"`
			OpID   string     `json:"op_id"`
			Escrow escrowJSON `json:"escrow"`
		}{action, r.OpID, p.toJSON(r.Account)})
	}

	fmt.Fprintf(p.out, "Escrow %s %s (op %s)\n", r.Account.Address, action, r.OpID)
	return nil
}

// printLayout displays the record layout
func (p *printer) printLayout() error {
	if p.format == "json" {
		return p.writeJSON(struct {
			Size   int            `json:"size"`
			Fields []escrow.Field `json:"fields"`
		}{escrow.ExpectedSize(), escrow.Layout()})
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "FIELD\tOFFSET\tWIDTH")
	for _, f := range escrow.Layout() {
		fmt.Fprintf(w, "%s\t%d\t%d\n", f.Name, f.Offset, f.Width)
	}
	fmt.Fprintf(w, "total\t\t%d\n", escrow.ExpectedSize())

	return nil
}

// shortKey abbreviates a base58 key for table output
func shortKey(pk escrow.Pubkey) string {
	s := pk.String()
	if len(s) <= 12 {
		return s
	}
	return s[:5] + ".." + s[len(s)-5:]
}

// formatAmount renders a raw token amount with the given number of decimals
func formatAmount(raw uint64, decimals int32) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -decimals)
	return d.StringFixed(decimals)
}

// parseAmount converts a human amount such as "1.5" into raw token units
func parseAmount(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", s)
	}

	d = d.Shift(decimals)
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}

	raw := d.BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64", s)
	}
	return raw.Uint64(), nil
}

// pubkeyValue is a pflag.Value for base58 keys
type pubkeyValue struct {
	key *escrow.Pubkey
	set bool
}

func (v *pubkeyValue) String() string {
	if v.key == nil || !v.set {
		return ""
	}
	return v.key.String()
}

func (v *pubkeyValue) Set(s string) error {
	pk, err := escrow.ParsePubkey(s)
	if err != nil {
		return err
	}
	*v.key = pk
	v.set = true
	return nil
}

func (v *pubkeyValue) Type() string {
	return "pubkey"
}
