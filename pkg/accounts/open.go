package accounts

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Options selects and configures a backend
type Options struct {
	Backend       string        // BackendLog or BackendPebble
	DataDir       string        // Root data directory
	FsyncInterval time.Duration // Log backend only
}

// Open creates and opens the backend named by opts.Backend
func Open(opts Options, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case "", BackendLog:
		store, err := NewLogStore(LogStoreConfig{
			DataDir:       opts.DataDir,
			FsyncInterval: opts.FsyncInterval,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create log store: %w", err)
		}
		if _, err := store.Open(); err != nil {
			return nil, fmt.Errorf("failed to open log store: %w", err)
		}
		return store, nil

	case BackendPebble:
		store, err := NewPebbleStore(filepath.Join(opts.DataDir, "pebble"), logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown account backend %q", opts.Backend)
	}
}

// BackendFactory opens account backends
type BackendFactory interface {
	OpenBackend(opts Options, logger *zap.Logger) (Backend, error)
}

// DefaultBackendFactory opens backends with Open
type DefaultBackendFactory struct{}

// NewBackendFactory creates the default backend factory
func NewBackendFactory() BackendFactory {
	return &DefaultBackendFactory{}
}

// OpenBackend opens the backend named by opts.Backend
func (f *DefaultBackendFactory) OpenBackend(opts Options, logger *zap.Logger) (Backend, error) {
	return Open(opts, logger)
}
