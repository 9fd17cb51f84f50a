// Package service implements escrow record workflows on top of an account
// backend. Every buffer handed to the escrow overlay is owned by this package
// for the duration of a single operation.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/accounts"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

// MakeParams describes a new escrow account
type MakeParams struct {
	Address escrow.Pubkey
	Seed    uint64
	Maker   escrow.Pubkey
	MintA   escrow.Pubkey
	MintB   escrow.Pubkey
	Receive uint64
	Bump    byte
}

// Patch lists the fields to change. Nil fields are left as they are.
type Patch struct {
	Seed    *uint64
	Maker   *escrow.Pubkey
	MintA   *escrow.Pubkey
	MintB   *escrow.Pubkey
	Receive *uint64
	Bump    *byte
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Seed == nil && p.Maker == nil && p.MintA == nil &&
		p.MintB == nil && p.Receive == nil && p.Bump == nil
}

// Filter narrows List results. Zero-valued keys match everything.
type Filter struct {
	Maker *escrow.Pubkey
	MintA *escrow.Pubkey
	MintB *escrow.Pubkey
}

func (f Filter) match(e escrow.Escrow) bool {
	if f.Maker != nil && *f.Maker != e.Maker {
		return false
	}
	if f.MintA != nil && *f.MintA != e.MintA {
		return false
	}
	if f.MintB != nil && *f.MintB != e.MintB {
		return false
	}
	return true
}

// Account pairs an escrow with the address it is stored under
type Account struct {
	Address escrow.Pubkey
	escrow.Escrow
}

// Result is returned by mutating operations
type Result struct {
	OpID    string
	Account Account
}

// Service manages escrow accounts
type Service struct {
	backend accounts.Backend
	logger  *zap.Logger
	mu      sync.Mutex
}

// New creates a service over backend. A nil logger disables logging.
func New(backend accounts.Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, logger: logger.Named("service")}
}

// Make creates a new escrow account at params.Address
func (s *Service) Make(ctx context.Context, params MakeParams) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.backend.Load(params.Address); err == nil {
		return nil, fmt.Errorf("%w: %s", accounts.ErrAccountExists, params.Address)
	} else if !errors.Is(err, accounts.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check account: %w", err)
	}

	buf := make([]byte, escrow.Size)
	m, err := escrow.ViewMut(buf)
	if err != nil {
		return nil, err
	}
	m.SetInner(params.Seed, params.Maker, params.MintA, params.MintB, params.Receive, [1]byte{params.Bump})

	if err := s.backend.Store(params.Address, buf); err != nil {
		return nil, fmt.Errorf("failed to store escrow: %w", err)
	}

	opID := ksuid.New().String()
	s.logger.Info("escrow created",
		zap.String("op_id", opID),
		zap.Stringer("address", params.Address),
		zap.Uint64("seed", params.Seed),
		zap.Stringer("maker", params.Maker))

	return &Result{OpID: opID, Account: Account{Address: params.Address, Escrow: m.Escrow()}}, nil
}

// Get returns the escrow stored at addr
func (s *Service) Get(ctx context.Context, addr escrow.Pubkey) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.backend.Load(addr)
	if err != nil {
		return nil, err
	}
	ref, err := escrow.View(data)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	return &Account{Address: addr, Escrow: ref.Escrow()}, nil
}

// Raw returns the stored bytes at addr after checking they form an escrow
func (s *Service) Raw(ctx context.Context, addr escrow.Pubkey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.backend.Load(addr)
	if err != nil {
		return nil, err
	}
	if _, err := escrow.View(data); err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	return data, nil
}

// Update applies patch to the escrow at addr. Either every field in the
// patch is written or the stored account is left unchanged.
func (s *Service) Update(ctx context.Context, addr escrow.Pubkey, patch Patch) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Load(addr)
	if err != nil {
		return nil, err
	}

	err = escrow.Stage(data, func(m escrow.Mut) error {
		if patch.Seed != nil {
			m.SetSeed(*patch.Seed)
		}
		if patch.Maker != nil {
			m.SetMaker(*patch.Maker)
		}
		if patch.MintA != nil {
			m.SetMintA(*patch.MintA)
		}
		if patch.MintB != nil {
			m.SetMintB(*patch.MintB)
		}
		if patch.Receive != nil {
			m.SetReceive(*patch.Receive)
		}
		if patch.Bump != nil {
			m.SetBump([1]byte{*patch.Bump})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}

	if err := s.backend.Store(addr, data); err != nil {
		return nil, fmt.Errorf("failed to store escrow: %w", err)
	}

	ref, _ := escrow.View(data)
	opID := ksuid.New().String()
	s.logger.Info("escrow updated",
		zap.String("op_id", opID),
		zap.Stringer("address", addr))

	return &Result{OpID: opID, Account: Account{Address: addr, Escrow: ref.Escrow()}}, nil
}

// Close removes the escrow at addr and returns its final state
func (s *Service) Close(ctx context.Context, addr escrow.Pubkey) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Load(addr)
	if err != nil {
		return nil, err
	}
	// Accounts of the wrong size can still be closed; only report what parses.
	var final escrow.Escrow
	if ref, err := escrow.View(data); err == nil {
		final = ref.Escrow()
	}

	if err := s.backend.Delete(addr); err != nil {
		return nil, fmt.Errorf("failed to delete escrow: %w", err)
	}

	opID := ksuid.New().String()
	s.logger.Info("escrow closed",
		zap.String("op_id", opID),
		zap.Stringer("address", addr))

	return &Result{OpID: opID, Account: Account{Address: addr, Escrow: final}}, nil
}

// List returns every escrow matching filter, sorted by address. Accounts
// whose data is not a well-formed escrow are skipped and logged.
func (s *Service) List(ctx context.Context, filter Filter) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addrs, err := s.backend.Addresses()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	out := make([]Account, 0, len(addrs))
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := s.backend.Load(addr)
		if errors.Is(err, accounts.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		ref, err := escrow.View(data)
		if err != nil {
			s.logger.Warn("skipping malformed account",
				zap.Stringer("address", addr),
				zap.Int("size", len(data)))
			continue
		}

		e := ref.Escrow()
		if filter.match(e) {
			out = append(out, Account{Address: addr, Escrow: e})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}

// Stats reports backend statistics
func (s *Service) Stats() *accounts.Stats {
	return s.backend.Stats()
}
