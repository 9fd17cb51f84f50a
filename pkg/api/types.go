package api

import (
	"context"
	"time"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/accounts"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind            string
	Port            int
	APIKey          string   // Required X-API-Key value; empty disables auth
	CORSOrigins     []string // Defaults to "*"
	ShutdownTimeout time.Duration
	StatsInterval   time.Duration // How often backend stats feed the gauges
}

// EscrowService is the set of escrow operations the API exposes
type EscrowService interface {
	Make(ctx context.Context, params service.MakeParams) (*service.Result, error)
	Get(ctx context.Context, addr escrow.Pubkey) (*service.Account, error)
	Raw(ctx context.Context, addr escrow.Pubkey) ([]byte, error)
	Update(ctx context.Context, addr escrow.Pubkey, patch service.Patch) (*service.Result, error)
	Close(ctx context.Context, addr escrow.Pubkey) (*service.Result, error)
	List(ctx context.Context, filter service.Filter) ([]service.Account, error)
	Stats() *accounts.Stats
}

// EscrowResponse is the JSON form of an escrow account
type EscrowResponse struct {
	Address escrow.Pubkey `json:"address"`
	Seed    uint64        `json:"seed"`
	Maker   escrow.Pubkey `json:"maker"`
	MintA   escrow.Pubkey `json:"mint_a"`
	MintB   escrow.Pubkey `json:"mint_b"`
	Receive uint64        `json:"receive"`
	Bump    uint8         `json:"bump"`
}

func newEscrowResponse(a service.Account) EscrowResponse {
	return EscrowResponse{
		Address: a.Address,
		Seed:    a.Seed,
		Maker:   a.Maker,
		MintA:   a.MintA,
		MintB:   a.MintB,
		Receive: a.Receive,
		Bump:    a.Bump[0],
	}
}

// MutationResponse is returned by make, update and close
type MutationResponse struct {
	OpID   string         `json:"op_id"`
	Escrow EscrowResponse `json:"escrow"`
}

// MakeRequest creates an escrow account. Every field is required; records
// have no default values.
type MakeRequest struct {
	Address *escrow.Pubkey `json:"address"`
	Seed    *uint64        `json:"seed"`
	Maker   *escrow.Pubkey `json:"maker"`
	MintA   *escrow.Pubkey `json:"mint_a"`
	MintB   *escrow.Pubkey `json:"mint_b"`
	Receive *uint64        `json:"receive"`
	Bump    *uint8         `json:"bump"`
}

// missing lists the JSON names of the fields absent from the request
func (m MakeRequest) missing() []string {
	var names []string
	if m.Address == nil || m.Address.IsZero() {
		names = append(names, "address")
	}
	if m.Seed == nil {
		names = append(names, "seed")
	}
	if m.Maker == nil {
		names = append(names, "maker")
	}
	if m.MintA == nil {
		names = append(names, "mint_a")
	}
	if m.MintB == nil {
		names = append(names, "mint_b")
	}
	if m.Receive == nil {
		names = append(names, "receive")
	}
	if m.Bump == nil {
		names = append(names, "bump")
	}
	return names
}

// params converts a complete request; call missing first
func (m MakeRequest) params() service.MakeParams {
	return service.MakeParams{
		Address: *m.Address,
		Seed:    *m.Seed,
		Maker:   *m.Maker,
		MintA:   *m.MintA,
		MintB:   *m.MintB,
		Receive: *m.Receive,
		Bump:    *m.Bump,
	}
}

// PatchRequest updates the fields present in the body
type PatchRequest struct {
	Seed    *uint64        `json:"seed,omitempty"`
	Maker   *escrow.Pubkey `json:"maker,omitempty"`
	MintA   *escrow.Pubkey `json:"mint_a,omitempty"`
	MintB   *escrow.Pubkey `json:"mint_b,omitempty"`
	Receive *uint64        `json:"receive,omitempty"`
	Bump    *uint8         `json:"bump,omitempty"`
}

func (p PatchRequest) patch() service.Patch {
	return service.Patch{
		Seed:    p.Seed,
		Maker:   p.Maker,
		MintA:   p.MintA,
		MintB:   p.MintB,
		Receive: p.Receive,
		Bump:    p.Bump,
	}
}

// LayoutResponse describes the record layout
type LayoutResponse struct {
	Size   int            `json:"size"`
	Fields []escrow.Field `json:"fields"`
}
