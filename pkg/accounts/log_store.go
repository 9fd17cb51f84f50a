package accounts

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
)

// LogStore is a bitcask-style Backend: every write appends a frame to a
// single log file and an in-memory index points at the latest frame per
// address.
type LogStore struct {
	config   LogStoreConfig
	writer   *LogWriter
	reader   *LogReader
	index    *Index
	dataFile string
	logger   *zap.Logger
	mutex    sync.Mutex
	isOpen   bool
}

// NewLogStore creates a log store rooted at config.DataDir. Call Open before use.
func NewLogStore(config LogStoreConfig, logger *zap.Logger) (*LogStore, error) {
	if err := os.MkdirAll(config.DataDir, 0750); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LogStore{
		config:   config,
		dataFile: filepath.Join(config.DataDir, "accounts.data"),
		index:    NewIndex(),
		logger:   logger.Named("logstore"),
	}, nil
}

// Open validates the log, truncates a torn tail and rebuilds the index
func (s *LogStore) Open() (*RecoveryResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isOpen {
		return &RecoveryResult{}, nil
	}

	recovery, err := s.recover()
	if err != nil {
		return nil, err
	}
	if recovery.FramesTruncated > 0 {
		s.logger.Warn("truncated corrupted log tail",
			zap.String("file", s.dataFile),
			zap.Int64("size_before", recovery.FileSizeBefore),
			zap.Int64("size_after", recovery.FileSizeAfter))
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      s.dataFile,
		FsyncInterval: s.config.FsyncInterval,
		BufferSize:    64 * 1024,
	})
	if err != nil {
		return nil, err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: s.dataFile})
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	if err := s.index.BuildFromLog(reader); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, err
	}

	s.writer = writer
	s.reader = reader
	s.isOpen = true

	s.logger.Debug("opened account log",
		zap.String("file", s.dataFile),
		zap.Int("accounts", s.index.Size()),
		zap.Int64("frames", recovery.FramesValidated))

	return recovery, nil
}

// Load returns a copy of the account data for addr
func (s *LogStore) Load(addr escrow.Pubkey) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil, ErrClosed
	}

	entry, exists := s.index.Get(addr)
	if !exists {
		return nil, ErrAccountNotFound
	}

	frame, err := s.reader.ReadAt(entry.Offset, entry.Size)
	if err != nil {
		return nil, err
	}
	if frame.IsTombstone() {
		return nil, ErrAccountNotFound
	}

	return frame.Data, nil
}

// Store appends data as the new contents of addr
func (s *LogStore) Store(addr escrow.Pubkey, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrClosed
	}
	if len(data) == 0 || len(data) > MaxDataSize {
		return ErrInvalidSize
	}

	offset, frame, err := s.writer.Append(addr, data)
	if err != nil {
		return err
	}

	s.index.Put(addr, &IndexEntry{
		Offset:    offset,
		Size:      uint32(frame.Size()),
		Timestamp: frame.Timestamp,
	})
	return nil
}

// Delete writes a tombstone for addr
func (s *LogStore) Delete(addr escrow.Pubkey) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrClosed
	}
	if _, exists := s.index.Get(addr); !exists {
		return ErrAccountNotFound
	}

	if _, _, err := s.writer.Append(addr, nil); err != nil {
		return err
	}
	s.index.Delete(addr)
	return nil
}

// Addresses lists live accounts in byte order
func (s *LogStore) Addresses() ([]escrow.Pubkey, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil, ErrClosed
	}
	return s.index.Addresses(), nil
}

// Stats returns store statistics
func (s *LogStore) Stats() *Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return &Stats{Backend: BackendLog}
	}

	return &Stats{
		Backend:  BackendLog,
		Accounts: s.index.Size(),
		DataSize: s.writer.Size(),
	}
}

// Close flushes the log and releases file handles
func (s *LogStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil
	}
	s.isOpen = false

	if err := s.writer.Close(); err != nil {
		_ = s.reader.Close()
		return err
	}
	return s.reader.Close()
}

// recover scans the log and truncates it at the first frame that fails to
// decode or validate.
func (s *LogStore) recover() (*RecoveryResult, error) {
	start := time.Now()

	info, err := os.Stat(s.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{IndexRebuilt: true, RecoveryTime: time.Since(start)}, nil
		}
		return nil, err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: s.dataFile})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var validated int64
	var lastValid int64
	corrupted := false

	for {
		if _, err := reader.ReadNext(); err != nil {
			if !errors.Is(err, io.EOF) {
				corrupted = true
			}
			break
		}
		validated++
		lastValid = reader.Offset()
	}

	result := &RecoveryResult{
		FramesValidated: validated,
		FileSizeBefore:  info.Size(),
		FileSizeAfter:   info.Size(),
		IndexRebuilt:    true,
	}

	if corrupted {
		if err := os.Truncate(s.dataFile, lastValid); err != nil {
			return nil, err
		}
		result.FileSizeAfter = lastValid
		result.FramesTruncated = 1
	}

	result.RecoveryTime = time.Since(start)
	return result, nil
}
