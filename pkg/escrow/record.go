package escrow

import (
	"encoding/binary"
)

// Escrow is a decoded copy of an escrow record.
type Escrow struct {
	Seed    uint64  // Random seed for address derivation
	Maker   Pubkey  // Creator of the escrow
	MintA   Pubkey  // Token being deposited
	MintB   Pubkey  // Token being requested
	Receive uint64  // Amount of MintB wanted
	Bump    [1]byte // Address derivation bump
}

// MarshalBinary encodes e into a new Size-byte slice.
func (e Escrow) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	m, err := ViewMut(buf)
	if err != nil {
		return nil, err
	}
	m.Set(e)
	return buf, nil
}

// UnmarshalBinary decodes data, which must be exactly Size bytes.
func (e *Escrow) UnmarshalBinary(data []byte) error {
	ref, err := View(data)
	if err != nil {
		return err
	}
	*e = ref.Escrow()
	return nil
}

// Ref is a read-only handle over an escrow account buffer.
// It does not copy the buffer; later writes to it are visible through Ref.
type Ref struct {
	buf []byte
}

// View validates buf and returns a read-only handle over it.
func View(buf []byte) (Ref, error) {
	if err := checkSize(buf); err != nil {
		return Ref{}, err
	}
	return Ref{buf: buf}, nil
}

// Bytes returns the underlying buffer.
func (r Ref) Bytes() []byte {
	return r.buf
}

// Seed returns the u64 at offset 0.
func (r Ref) Seed() uint64 {
	return binary.LittleEndian.Uint64(r.buf[SeedOffset:MakerOffset])
}

// Maker returns a copy of the maker key at offset 8.
func (r Ref) Maker() Pubkey {
	return r.pubkeyAt(MakerOffset)
}

// MintA returns a copy of the deposited mint at offset 40.
func (r Ref) MintA() Pubkey {
	return r.pubkeyAt(MintAOffset)
}

// MintB returns a copy of the requested mint at offset 72.
func (r Ref) MintB() Pubkey {
	return r.pubkeyAt(MintBOffset)
}

// Receive returns the requested amount of mint B at offset 104.
func (r Ref) Receive() uint64 {
	return binary.LittleEndian.Uint64(r.buf[ReceiveOffset:BumpOffset])
}

// Bump returns the derivation bump at offset 112.
func (r Ref) Bump() [1]byte {
	return [1]byte{r.buf[BumpOffset]}
}

// Escrow copies every field out of the buffer.
func (r Ref) Escrow() Escrow {
	return Escrow{
		Seed:    r.Seed(),
		Maker:   r.Maker(),
		MintA:   r.MintA(),
		MintB:   r.MintB(),
		Receive: r.Receive(),
		Bump:    r.Bump(),
	}
}

func (r Ref) pubkeyAt(offset int) Pubkey {
	var pk Pubkey
	copy(pk[:], r.buf[offset:offset+PubkeySize])
	return pk
}

// Mut is a mutable handle over an escrow account buffer.
// Every setter writes straight into the caller's buffer.
type Mut struct {
	Ref
}

// ViewMut validates buf and returns a mutable handle over it.
func ViewMut(buf []byte) (Mut, error) {
	if err := checkSize(buf); err != nil {
		return Mut{}, err
	}
	return Mut{Ref{buf: buf}}, nil
}

// SetSeed writes bytes 0..8.
func (m Mut) SetSeed(seed uint64) {
	binary.LittleEndian.PutUint64(m.buf[SeedOffset:MakerOffset], seed)
}

// SetMaker writes bytes 8..40.
func (m Mut) SetMaker(maker Pubkey) {
	copy(m.buf[MakerOffset:MintAOffset], maker[:])
}

// SetMintA writes bytes 40..72.
func (m Mut) SetMintA(mintA Pubkey) {
	copy(m.buf[MintAOffset:MintBOffset], mintA[:])
}

// SetMintB writes bytes 72..104.
func (m Mut) SetMintB(mintB Pubkey) {
	copy(m.buf[MintBOffset:ReceiveOffset], mintB[:])
}

// SetReceive writes bytes 104..112.
func (m Mut) SetReceive(receive uint64) {
	binary.LittleEndian.PutUint64(m.buf[ReceiveOffset:BumpOffset], receive)
}

// SetBump writes byte 112.
func (m Mut) SetBump(bump [1]byte) {
	m.buf[BumpOffset] = bump[0]
}

// SetInner writes all six fields in layout order.
// The writes are independent; a reader sharing the buffer may observe a mix
// of old and new fields until SetInner returns.
func (m Mut) SetInner(seed uint64, maker, mintA, mintB Pubkey, receive uint64, bump [1]byte) {
	m.SetSeed(seed)
	m.SetMaker(maker)
	m.SetMintA(mintA)
	m.SetMintB(mintB)
	m.SetReceive(receive)
	m.SetBump(bump)
}

// Set writes every field of e.
func (m Mut) Set(e Escrow) {
	m.SetInner(e.Seed, e.Maker, e.MintA, e.MintB, e.Receive, e.Bump)
}

// Stage runs fn against a scratch copy of buf and copies the result back in
// one step only if fn succeeds. buf is left untouched when fn fails.
func Stage(buf []byte, fn func(Mut) error) error {
	if err := checkSize(buf); err != nil {
		return err
	}

	scratch := make([]byte, Size)
	copy(scratch, buf)
	if err := fn(Mut{Ref{buf: scratch}}); err != nil {
		return err
	}

	copy(buf, scratch)
	return nil
}
