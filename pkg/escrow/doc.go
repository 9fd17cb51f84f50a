// Package escrow defines the fixed binary layout of an escrow account and
// typed handles for reading and writing it in place.
//
// The account data buffer is owned by the storage layer. This package never
// allocates, grows or frees it; it checks the length and then reads or writes
// individual fields at fixed offsets.
//
// # Record Format
//
// Records are exactly 113 bytes with no header, checksum or padding:
//
//	[Seed(8)][Maker(32)][MintA(32)][MintB(32)][Receive(8)][Bump(1)]
//
// Fields:
//   - Seed: 64-bit unsigned integer used to derive the account address (little-endian)
//   - Maker: 32-byte public key of the party that opened the escrow
//   - MintA: 32-byte mint of the token deposited by the maker
//   - MintB: 32-byte mint of the token the maker wants back
//   - Receive: 64-bit unsigned amount of MintB expected (little-endian)
//   - Bump: 1-byte canonical bump from address derivation
//
// Offsets are declared explicitly (see Layout) and do not depend on Go
// struct layout. Existing stored records must keep reading back bit for bit,
// so the offsets and widths are part of the storage format.
//
// # Usage
//
// Initialising a freshly allocated buffer:
//
//	buf := make([]byte, escrow.Size)
//	rec, err := escrow.ViewMut(buf)
//	if err != nil {
//	    return err
//	}
//	rec.SetInner(seed, maker, mintA, mintB, receive, [1]byte{bump})
//
// Reading it back:
//
//	ref, err := escrow.View(buf)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(ref.Maker(), ref.Receive())
//
// # Error Handling
//
// The only check is the buffer length. Any length other than Size yields an
// error that matches ErrSizeMismatch and ErrInvalidAccountData with
// errors.Is. Field values are not validated.
//
// # Aliasing
//
// Ref and Mut hold the caller's slice. Writes through a Mut are visible to
// every other holder of the same backing array immediately. Callers must not
// mutate a buffer from two goroutines at once, and must not read it from one
// goroutine while another writes through a Mut. SetInner performs six
// independent writes; use Stage when a partially written record must never
// be observable.
package escrow
