package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrOutputNotWritable indicates the destination directory cannot accept
	// new files.
	ErrOutputNotWritable = errors.New("output directory not writable")
	// ErrEmptyName indicates a channel without a bound name.
	ErrEmptyName = errors.New("channel name is empty")
	// ErrInvalidName indicates a channel name that cannot be used as a field
	// key: it contains '=', whitespace, or control characters.
	ErrInvalidName = errors.New("invalid channel name")
	// ErrMalformed indicates a sequence file that does not follow the format.
	ErrMalformed = errors.New("malformed sequence file")
)

// WriteError reports a failed save for one channel. The file at Path, if it
// exists at all, must be treated as invalid.
type WriteError struct {
	Ordinal int
	Channel string
	Path    string
	Err     error
}

func (e *WriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("save channel %d (%s) to %s: %v", e.Ordinal, e.Channel, e.Path, e.Err)
	}
	return fmt.Sprintf("save channel %d (%s): %v", e.Ordinal, e.Channel, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
