package accounts

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

// Index maps live account addresses to their latest frame in the log
type Index struct {
	entries map[escrow.Pubkey]*IndexEntry
	mutex   sync.RWMutex
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		entries: make(map[escrow.Pubkey]*IndexEntry),
	}
}

// Put adds or updates the entry for addr
func (idx *Index) Put(addr escrow.Pubkey, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries[addr] = entry
}

// Get retrieves the entry for addr
func (idx *Index) Get(addr escrow.Pubkey) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	entry, exists := idx.entries[addr]
	return entry, exists
}

// Delete removes addr from the index
func (idx *Index) Delete(addr escrow.Pubkey) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	delete(idx.entries, addr)
}

// Size returns the number of live accounts
func (idx *Index) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.entries)
}

// Addresses returns every indexed address in byte order
func (idx *Index) Addresses() []escrow.Pubkey {
	idx.mutex.RLock()
	addrs := make([]escrow.Pubkey, 0, len(idx.entries))
	for addr := range idx.entries {
		addrs = append(addrs, addr)
	}
	idx.mutex.RUnlock()

	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

// BuildFromLog scans the log from the start and rebuilds the index.
// Tombstones remove their address.
func (idx *Index) BuildFromLog(reader *LogReader) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[escrow.Pubkey]*IndexEntry)

	if err := reader.SeekTo(0); err != nil {
		return err
	}

	for {
		start := reader.Offset()
		frame, err := reader.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if frame.IsTombstone() {
			delete(idx.entries, frame.Address)
			continue
		}
		idx.entries[frame.Address] = &IndexEntry{
			Offset:    start,
			Size:      uint32(frame.Size()),
			Timestamp: frame.Timestamp,
		}
	}
}
