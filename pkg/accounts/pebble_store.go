package accounts

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

var accountPrefix = []byte("acct/")

// PebbleStore is a Backend on top of a pebble LSM database
type PebbleStore struct {
	db     *pebble.DB
	logger *zap.Logger
}

// NewPebbleStore opens (or creates) a pebble database at path
func NewPebbleStore(path string, logger *zap.Logger) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PebbleStore{db: db, logger: logger.Named("pebble")}, nil
}

func accountKey(addr escrow.Pubkey) []byte {
	key := make([]byte, 0, len(accountPrefix)+escrow.PubkeySize)
	key = append(key, accountPrefix...)
	return append(key, addr[:]...)
}

// prefixUpperBound returns the smallest key greater than every key with prefix p
func prefixUpperBound(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *PebbleStore) Load(addr escrow.Pubkey) ([]byte, error) {
	value, closer, err := s.db.Get(accountKey(addr))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	defer closer.Close()

	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}

func (s *PebbleStore) Store(addr escrow.Pubkey, data []byte) error {
	if len(data) == 0 || len(data) > MaxDataSize {
		return ErrInvalidSize
	}
	return s.db.Set(accountKey(addr), data, pebble.Sync)
}

func (s *PebbleStore) Delete(addr escrow.Pubkey) error {
	key := accountKey(addr)
	_, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	_ = closer.Close()

	return s.db.Delete(key, pebble.Sync)
}

// Addresses lists live accounts in key (byte) order
func (s *PebbleStore) Addresses() ([]escrow.Pubkey, error) {
	var addrs []escrow.Pubkey
	err := s.scan(func(key, _ []byte) error {
		addr, err := escrow.PubkeyFromBytes(key[len(accountPrefix):])
		if err != nil {
			return fmt.Errorf("malformed account key %x: %w", key, err)
		}
		addrs = append(addrs, addr)
		return nil
	})
	return addrs, err
}

func (s *PebbleStore) Stats() *Stats {
	stats := &Stats{Backend: BackendPebble}
	err := s.scan(func(_, value []byte) error {
		stats.Accounts++
		stats.DataSize += int64(len(value))
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to collect stats", zap.Error(err))
	}
	return stats
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) scan(fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: accountPrefix,
		UpperBound: prefixUpperBound(accountPrefix),
	})
	if err != nil {
		return err
	}

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			_ = iter.Close()
			return err
		}
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return err
	}
	return iter.Close()
}
