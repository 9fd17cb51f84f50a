package accounts

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// LogReader provides sequential and random access to frames in a log file
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the frame at the current offset.
// It returns io.EOF at a clean end of file and ErrCorruption for a torn or
// checksum-failing frame.
func (r *LogReader) ReadNext() (*Frame, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r.reader, header)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrCorruption
		}
		return nil, err
	}

	dataSize := binary.LittleEndian.Uint32(header[4:8])
	if dataSize > MaxDataSize {
		return nil, ErrCorruption
	}
	buf := make([]byte, HeaderSize+int(dataSize))
	copy(buf, header)

	m, err := io.ReadFull(r.reader, buf[HeaderSize:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrCorruption
		}
		return nil, err
	}

	frame, err := DecodeFrame(buf)
	if err != nil {
		return nil, ErrCorruption
	}
	if err := frame.Validate(); err != nil {
		return nil, ErrCorruption
	}

	r.offset += int64(n + m)
	return frame, nil
}

// ReadAt reads the frame starting at offset without moving the sequential cursor
func (r *LogReader) ReadAt(offset int64, size uint32) (*Frame, error) {
	if size < HeaderSize {
		return nil, ErrCorruption
	}

	buf := make([]byte, size)
	if _, err := r.file.ReadAt(buf, offset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrCorruption
		}
		return nil, err
	}

	frame, err := DecodeFrame(buf)
	if err != nil {
		return nil, ErrCorruption
	}
	if err := frame.Validate(); err != nil {
		return nil, ErrCorruption
	}

	return frame, nil
}

// SeekTo sets the read offset
func (r *LogReader) SeekTo(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file)
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}
