package accounts

import (
	"time"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

// Backend names accepted by Open
const (
	BackendLog    = "log"
	BackendPebble = "pebble"
)

// MaxDataSize caps a single account's data, matching the 10 MiB account limit
// of the runtime that produces these records.
const MaxDataSize = 10 * 1024 * 1024

// Backend owns account data buffers keyed by address.
//
// Load returns a private copy of the stored bytes. Callers may mutate it and
// hand it back through Store.
type Backend interface {
	Load(addr escrow.Pubkey) ([]byte, error)
	Store(addr escrow.Pubkey, data []byte) error
	Delete(addr escrow.Pubkey) error
	Addresses() ([]escrow.Pubkey, error)
	Stats() *Stats
	Close() error
}

// Stats holds statistics about a backend
type Stats struct {
	Backend  string `json:"backend"`
	Accounts int    `json:"accounts"`
	DataSize int64  `json:"data_size"`
}

// IndexEntry represents the location of an account's latest frame in the log
type IndexEntry struct {
	Offset    int64  // Byte offset within the file
	Size      uint32 // Size of the frame in bytes
	Timestamp uint64 // Frame timestamp
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// LogStoreConfig holds configuration for the log-structured backend
type LogStoreConfig struct {
	DataDir       string        // Directory for data files
	FsyncInterval time.Duration // Fsync interval for durability
}

// RecoveryResult describes what Open found in the log
type RecoveryResult struct {
	FramesValidated int64
	FramesTruncated int64
	FileSizeBefore  int64
	FileSizeAfter   int64
	IndexRebuilt    bool
	RecoveryTime    time.Duration
}

// Errors
var (
	ErrAccountNotFound = &AccountError{"account not found"}
	ErrAccountExists   = &AccountError{"account already exists"}
	ErrInvalidSize     = &AccountError{"account data size out of range"}
	ErrCorruption      = &AccountError{"data corruption detected"}
	ErrClosed          = &AccountError{"account store is not open"}
)

// AccountError represents an account store error
type AccountError struct {
	Message string
}

func (e *AccountError) Error() string {
	return e.Message
}
