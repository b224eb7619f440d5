package capture

import (
	"errors"
	"strings"

	"transformrecorder/internal/sequence"
)

var (
	// ErrNoChannelBound is returned when recording is requested with no bound
	// channel. The controller state is unchanged.
	ErrNoChannelBound = errors.New("no channel bound")
	// ErrInvalidChannel is returned for ordinals outside 1..NumChannels.
	ErrInvalidChannel = errors.New("invalid channel ordinal")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current controller state.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrTimestampOrder is returned when a sample would precede the previous
	// sample of its channel.
	ErrTimestampOrder = errors.New("sample timestamp precedes previous sample")
	// ErrNilSource is returned when binding a nil source.
	ErrNilSource = errors.New("source is nil")
	// ErrNoEncoder is reported for every channel when persistence is on but
	// the controller has no encoder.
	ErrNoEncoder = errors.New("no sequence encoder configured")
	// ErrDispatcherClosed is returned by Dispatcher.Call once Run has returned.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// SaveError lists the channels whose sequence files could not be written.
// Channels not listed were saved successfully.
type SaveError struct {
	Failures []*sequence.WriteError
}

func (e *SaveError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *SaveError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Failed reports whether the channel with ordinal failed to save.
func (e *SaveError) Failed(ordinal int) bool {
	for _, f := range e.Failures {
		if f.Ordinal == ordinal {
			return true
		}
	}
	return false
}
