package escrow

// Field widths in bytes.
const (
	SeedSize    = 8
	PubkeySize  = 32
	ReceiveSize = 8
	BumpSize    = 1
)

// Field offsets within the record.
const (
	SeedOffset    = 0
	MakerOffset   = SeedOffset + SeedSize
	MintAOffset   = MakerOffset + PubkeySize
	MintBOffset   = MintAOffset + PubkeySize
	ReceiveOffset = MintBOffset + PubkeySize
	BumpOffset    = ReceiveOffset + ReceiveSize
)

// Size is the exact length of an encoded escrow record.
const Size = BumpOffset + BumpSize

// Field names as they appear in the layout table.
const (
	FieldSeed    = "seed"
	FieldMaker   = "maker"
	FieldMintA   = "mint_a"
	FieldMintB   = "mint_b"
	FieldReceive = "receive"
	FieldBump    = "bump"
)

// Field describes one entry of the record layout
type Field struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Width  int    `json:"width"`
}

// End returns the offset one past the last byte of the field.
func (f Field) End() int {
	return f.Offset + f.Width
}

var layout = [...]Field{
	{Name: FieldSeed, Offset: SeedOffset, Width: SeedSize},
	{Name: FieldMaker, Offset: MakerOffset, Width: PubkeySize},
	{Name: FieldMintA, Offset: MintAOffset, Width: PubkeySize},
	{Name: FieldMintB, Offset: MintBOffset, Width: PubkeySize},
	{Name: FieldReceive, Offset: ReceiveOffset, Width: ReceiveSize},
	{Name: FieldBump, Offset: BumpOffset, Width: BumpSize},
}

// ExpectedSize returns the number of bytes an escrow account must hold.
func ExpectedSize() int {
	return Size
}

// Layout returns the field table in storage order.
func Layout() []Field {
	out := make([]Field, len(layout))
	copy(out, layout[:])
	return out
}

// LookupField returns the layout entry for name.
func LookupField(name string) (Field, bool) {
	for _, f := range layout {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
