package escrow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAccountData is the error class for account data the program cannot interpret.
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrSizeMismatch is returned when a buffer is not exactly Size bytes long.
	ErrSizeMismatch = fmt.Errorf("%w: escrow size mismatch", ErrInvalidAccountData)
)

func checkSize(buf []byte) error {
	if len(buf) != Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(buf), Size)
	}
	return nil
}
