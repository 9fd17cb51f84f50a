package accounts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()

	backends := map[string]Backend{}
	for _, name := range []string{BackendLog, BackendPebble} {
		b, err := Open(Options{Backend: name, DataDir: t.TempDir()}, nil)
		require.NoError(t, err, "open %s", name)
		t.Cleanup(func() { _ = b.Close() })
		backends[name] = b
	}
	return backends
}

func TestBackend_BasicOperations(t *testing.T) {
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			addr := testAddr(0x10)
			data := bytes.Repeat([]byte{0x42}, escrow.Size)

			_, err := b.Load(addr)
			assert.ErrorIs(t, err, ErrAccountNotFound)

			require.NoError(t, b.Store(addr, data))

			got, err := b.Load(addr)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			// Load hands out a private copy.
			got[0] = 0
			again, err := b.Load(addr)
			require.NoError(t, err)
			assert.Equal(t, byte(0x42), again[0])

			require.NoError(t, b.Delete(addr))
			_, err = b.Load(addr)
			assert.ErrorIs(t, err, ErrAccountNotFound)

			assert.ErrorIs(t, b.Delete(addr), ErrAccountNotFound)
		})
	}
}

func TestBackend_Overwrite(t *testing.T) {
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			addr := testAddr(0x20)
			require.NoError(t, b.Store(addr, []byte{1, 1, 1}))
			require.NoError(t, b.Store(addr, []byte{2, 2, 2}))

			got, err := b.Load(addr)
			require.NoError(t, err)
			assert.Equal(t, []byte{2, 2, 2}, got)
		})
	}
}

func TestBackend_InvalidSize(t *testing.T) {
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, b.Store(testAddr(1), nil), ErrInvalidSize)
			assert.ErrorIs(t, b.Store(testAddr(1), []byte{}), ErrInvalidSize)
		})
	}
}

func TestBackend_AddressesSorted(t *testing.T) {
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, x := range []byte{0x30, 0x05, 0x99, 0x41} {
				require.NoError(t, b.Store(testAddr(x), []byte{x}))
			}
			require.NoError(t, b.Delete(testAddr(0x99)))

			addrs, err := b.Addresses()
			require.NoError(t, err)
			assert.Equal(t, []escrow.Pubkey{testAddr(0x05), testAddr(0x30), testAddr(0x41)}, addrs)

			stats := b.Stats()
			assert.Equal(t, name, stats.Backend)
			assert.Equal(t, 3, stats.Accounts)
			assert.Greater(t, stats.DataSize, int64(0))
		})
	}
}

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	for _, name := range []string{BackendLog, BackendPebble} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			opts := Options{Backend: name, DataDir: dir}

			b, err := Open(opts, nil)
			require.NoError(t, err)
			require.NoError(t, b.Store(testAddr(1), []byte("one")))
			require.NoError(t, b.Store(testAddr(2), []byte("two")))
			require.NoError(t, b.Delete(testAddr(1)))
			require.NoError(t, b.Close())

			b, err = Open(opts, nil)
			require.NoError(t, err)
			defer b.Close()

			_, err = b.Load(testAddr(1))
			assert.ErrorIs(t, err, ErrAccountNotFound)

			got, err := b.Load(testAddr(2))
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), got)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "redis", DataDir: t.TempDir()}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown account backend")
}

func TestLogStore_ClosedOperations(t *testing.T) {
	store, err := NewLogStore(LogStoreConfig{DataDir: t.TempDir()}, nil)
	require.NoError(t, err)

	_, err = store.Load(testAddr(1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Store(testAddr(1), []byte{1}), ErrClosed)
	assert.ErrorIs(t, store.Delete(testAddr(1)), ErrClosed)
	_, err = store.Addresses()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, &Stats{Backend: BackendLog}, store.Stats())
	assert.NoError(t, store.Close())
}

func TestLogStore_RecoversFromTornWrite(t *testing.T) {
	dir := t.TempDir()

	store, err := NewLogStore(LogStoreConfig{DataDir: dir}, nil)
	require.NoError(t, err)
	_, err = store.Open()
	require.NoError(t, err)
	require.NoError(t, store.Store(testAddr(1), bytes.Repeat([]byte{1}, escrow.Size)))
	require.NoError(t, store.Store(testAddr(2), bytes.Repeat([]byte{2}, escrow.Size)))
	size := store.Stats().DataSize
	require.NoError(t, store.Close())

	// Simulate a crash halfway through a third frame.
	dataFile := filepath.Join(dir, "accounts.data")
	partial := NewFrame(testAddr(3), bytes.Repeat([]byte{3}, escrow.Size)).Encode()
	f, err := os.OpenFile(dataFile, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write(partial[:len(partial)/2])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store, err = NewLogStore(LogStoreConfig{DataDir: dir}, nil)
	require.NoError(t, err)
	recovery, err := store.Open()
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, int64(2), recovery.FramesValidated)
	assert.Equal(t, int64(1), recovery.FramesTruncated)
	assert.Equal(t, size, recovery.FileSizeAfter)
	assert.True(t, recovery.IndexRebuilt)

	info, err := os.Stat(dataFile)
	require.NoError(t, err)
	assert.Equal(t, size, info.Size())

	_, err = store.Load(testAddr(3))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// New writes land after the truncated tail and read back cleanly.
	require.NoError(t, store.Store(testAddr(3), []byte{3}))
	got, err := store.Load(testAddr(3))
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, got)
}

func TestLogStore_RecoversFromCorruptFirstFrame(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "accounts.data")

	encoded := NewFrame(testAddr(1), []byte("data")).Encode()
	encoded[HeaderSize] ^= 0xFF
	require.NoError(t, os.WriteFile(dataFile, encoded, 0600))

	store, err := NewLogStore(LogStoreConfig{DataDir: dir}, nil)
	require.NoError(t, err)
	recovery, err := store.Open()
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, int64(0), recovery.FramesValidated)
	assert.Equal(t, int64(0), recovery.FileSizeAfter)
	assert.Equal(t, 0, store.Stats().Accounts)
}
