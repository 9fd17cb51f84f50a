package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/accounts"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/api"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/di"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

func key(b byte) escrow.Pubkey {
	var pk escrow.Pubkey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

// cli runs commands against a config and data directory private to the test
type cli struct {
	configPath string
	dataDir    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	dir := t.TempDir()
	c := &cli{
		configPath: filepath.Join(dir, "escrow.yaml"),
		dataDir:    filepath.Join(dir, "data"),
	}
	_, err := c.run("init", "--data-dir", c.dataDir)
	require.NoError(t, err)
	return c
}

func (c *cli) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", c.configPath, "--log-level", "error"))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func makeArgs(addr escrow.Pubkey) []string {
	return []string{
		"make", addr.String(),
		"--seed", "42",
		"--maker", key(1).String(),
		"--mint-a", key(2).String(),
		"--mint-b", key(3).String(),
		"--receive", "1000",
		"--bump", "7",
	}
}

func TestInitCommand(t *testing.T) {
	c := newCLI(t)

	assert.FileExists(t, c.configPath)
	assert.DirExists(t, c.dataDir)

	info, err := os.Stat(c.configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err := c.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = c.run("init", "--force", "--data-dir", c.dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "API key:")
}

func TestEscrowCommands(t *testing.T) {
	c := newCLI(t)
	addr := key(0xAA)

	out, err := c.run(makeArgs(addr)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "created")

	out, err = c.run("show", addr.String(), "-o", "json")
	require.NoError(t, err, out)
	var shown escrowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, escrowJSON{
		Address: addr, Seed: 42, Maker: key(1), MintA: key(2), MintB: key(3), Receive: 1000, Bump: 7,
	}, shown)

	out, err = c.run("show", addr.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Receive:")
	assert.Contains(t, out, key(1).String())

	out, err = c.run("show", addr.String(), "--raw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "00000000  2a 00 00 00 00 00 00 00"), out)

	out, err = c.run("set", addr.String(), "--receive", "2.5", "--decimals", "3", "--bump", "254")
	require.NoError(t, err, out)
	assert.Contains(t, out, "updated")

	out, err = c.run("show", addr.String(), "-o", "json", "--decimals", "3")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, uint64(2500), shown.Receive)
	assert.Equal(t, "2.500", shown.ReceiveAmount)
	assert.Equal(t, uint8(254), shown.Bump)
	assert.Equal(t, uint64(42), shown.Seed)

	_, err = c.run("set", addr.String())
	assert.ErrorContains(t, err, "nothing to update")

	out, err = c.run("close", addr.String())
	require.NoError(t, err)
	assert.Contains(t, out, "closed")

	_, err = c.run("show", addr.String())
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestMakeCommand_Errors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(makeArgs(key(0x10))...)
	require.NoError(t, err)

	_, err = c.run(makeArgs(key(0x10))...)
	assert.ErrorIs(t, err, accounts.ErrAccountExists)

	_, err = c.run("make", "not-a-key!", "--maker", key(1).String(), "--mint-a", key(2).String(), "--mint-b", key(3).String())
	assert.Error(t, err)

	_, err = c.run("make", key(0x11).String(), "--maker", key(1).String())
	assert.ErrorContains(t, err, "required flag")

	_, err = c.run(append(makeArgs(key(0x12)), "--maker", "0OIl")...)
	assert.Error(t, err)
}

func TestMakeCommand_RequiresEveryField(t *testing.T) {
	c := newCLI(t)
	addr := key(0x13)

	for _, flag := range []string{"--seed", "--receive", "--bump"} {
		t.Run(flag, func(t *testing.T) {
			args := withoutFlag(makeArgs(addr), flag)
			_, err := c.run(args...)
			assert.ErrorContains(t, err, "required flag")
			assert.ErrorContains(t, err, strings.TrimPrefix(flag, "--"))
		})
	}

	_, err := c.run("show", addr.String())
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

// withoutFlag drops flag and its value from args
func withoutFlag(args []string, flag string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == flag {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func TestListCommand(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "No escrows found")

	for _, b := range []byte{0x30, 0x10, 0x20} {
		args := makeArgs(key(b))
		if b == 0x20 {
			args = append(args, "--maker", key(9).String())
		}
		_, err := c.run(args...)
		require.NoError(t, err)
	}

	out, err = c.run("list", "-o", "json")
	require.NoError(t, err)
	var all []escrowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 3)
	assert.Equal(t, key(0x10), all[0].Address)

	out, err = c.run("list", "-o", "json", "--maker", key(9).String())
	require.NoError(t, err)
	var filtered []escrowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, key(0x20), filtered[0].Address)

	out, err = c.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, key(0x30).String())
}

func TestLayoutCommand(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("layout")
	require.NoError(t, err)
	for _, name := range []string{"seed", "maker", "mint_a", "mint_b", "receive", "bump", "total"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "113")

	out, err = c.run("layout", "-o", "json")
	require.NoError(t, err)
	var layout struct {
		Size   int            `json:"size"`
		Fields []escrow.Field `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &layout))
	assert.Equal(t, 113, layout.Size)
	assert.Equal(t, escrow.Layout(), layout.Fields)
}

func TestRootCommand_Errors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("list", "-o", "yaml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = c.run("list", "--backend", "redis")
	assert.ErrorContains(t, err, "unknown storage backend")

	missing := &cli{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = missing.run("list")
	assert.ErrorContains(t, err, "config file does not exist")
}

func TestPebbleBackendFlag(t *testing.T) {
	c := newCLI(t)
	addr := key(0x40)

	_, err := c.run(append(makeArgs(addr), "--backend", "pebble")...)
	require.NoError(t, err)

	out, err := c.run("show", addr.String(), "--backend", "pebble", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, addr.String())

	// The log backend is a separate store.
	_, err = c.run("show", addr.String())
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

type captureServerFactory struct {
	config api.ServerConfig
	called bool
}

func (f *captureServerFactory) CreateServerStarter() api.ServerStarter { return f }

func (f *captureServerFactory) StartServer(_ context.Context, svc api.EscrowService, config api.ServerConfig, _ *zap.Logger) error {
	f.called = true
	f.config = config
	if svc == nil {
		return assert.AnError
	}
	return nil
}

func TestServeCommand(t *testing.T) {
	factory := &captureServerFactory{}
	container := di.NewContainer()
	container.SetServerFactory(factory)
	SetContainer(container)
	t.Cleanup(func() { SetContainer(nil) })

	c := newCLI(t)
	_, err := c.run("serve", "--port", "9311", "--api-key", "secret")
	require.NoError(t, err)

	require.True(t, factory.called)
	assert.Equal(t, 9311, factory.config.Port)
	assert.Equal(t, "127.0.0.1", factory.config.Bind)
	assert.Equal(t, "secret", factory.config.APIKey)
}

func TestAmounts(t *testing.T) {
	testCases := []struct {
		in       string
		decimals int32
		want     uint64
		wantErr  bool
	}{
		{"1000", 0, 1000, false},
		{"1.5", 6, 1_500_000, false},
		{"0.000001", 6, 1, false},
		{"18446744073709551615", 0, 18446744073709551615, false},
		{"18446744073709551616", 0, 0, true},
		{"1.25", 1, 0, true},
		{"-1", 0, 0, true},
		{"abc", 0, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseAmount(tc.in, tc.decimals)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Equal(t, "1000", formatAmount(1000, 0))
	assert.Equal(t, "0.001000", formatAmount(1000, 6))
	assert.Equal(t, "18446744073709.551615", formatAmount(18446744073709551615, 6))
}
