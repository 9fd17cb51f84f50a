package accounts

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

// HeaderSize is the fixed frame header length:
// CRC32(4) + DataSize(4) + Timestamp(8) + Address(32).
const HeaderSize = 4 + 4 + 8 + escrow.PubkeySize

// Frame is one account write in the append-only log.
//
// Format: [CRC32(4)][DataSize(4)][Timestamp(8)][Address(32)][Data]
//
// The CRC covers every byte after the CRC field. A frame with DataSize 0 is a
// tombstone: the account was closed.
type Frame struct {
	CRC32     uint32
	DataSize  uint32
	Timestamp uint64
	Address   escrow.Pubkey
	Data      []byte
}

// NewFrame creates a frame stamped with the current time
func NewFrame(addr escrow.Pubkey, data []byte) *Frame {
	if len(data) > int(^uint32(0)) {
		panic("account data too large")
	}
	return &Frame{
		DataSize:  uint32(len(data)),
		Timestamp: uint64(time.Now().UnixNano()),
		Address:   addr,
		Data:      data,
	}
}

// IsTombstone reports whether the frame closes its account.
func (f *Frame) IsTombstone() bool {
	return f.DataSize == 0
}

// Size returns the encoded frame length.
func (f *Frame) Size() int {
	return HeaderSize + len(f.Data)
}

// Validate checks the frame CRC.
func (f *Frame) Validate() error {
	if sum := f.checksum(); f.CRC32 != sum {
		return fmt.Errorf("CRC32 mismatch: %d != %d", f.CRC32, sum)
	}
	return nil
}

// Encode serializes the frame, filling in its CRC.
func (f *Frame) Encode() []byte {
	buf := make([]byte, f.Size())
	binary.LittleEndian.PutUint32(buf[4:8], f.DataSize)
	binary.LittleEndian.PutUint64(buf[8:16], f.Timestamp)
	copy(buf[16:HeaderSize], f.Address[:])
	copy(buf[HeaderSize:], f.Data)

	f.CRC32 = crc32.ChecksumIEEE(buf[4:])
	binary.LittleEndian.PutUint32(buf[0:4], f.CRC32)
	return buf
}

// DecodeFrame parses a frame from data. The returned frame's Data aliases data.
// The CRC is not checked; call Validate.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("data too short for frame header: %d < %d", len(data), HeaderSize)
	}

	f := &Frame{
		CRC32:     binary.LittleEndian.Uint32(data[0:4]),
		DataSize:  binary.LittleEndian.Uint32(data[4:8]),
		Timestamp: binary.LittleEndian.Uint64(data[8:16]),
	}
	copy(f.Address[:], data[16:HeaderSize])

	end := HeaderSize + int(f.DataSize)
	if len(data) < end {
		return nil, fmt.Errorf("data too short for account data: %d < %d", len(data), end)
	}
	f.Data = data[HeaderSize:end]

	return f, nil
}

func (f *Frame) checksum() uint32 {
	var hdr [HeaderSize - 4]byte
	binary.LittleEndian.PutUint32(hdr[0:4], f.DataSize)
	binary.LittleEndian.PutUint64(hdr[4:12], f.Timestamp)
	copy(hdr[12:], f.Address[:])

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[:])
	_, _ = crc.Write(f.Data)
	return crc.Sum32()
}
