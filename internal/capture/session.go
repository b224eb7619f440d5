package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"transformrecorder/internal/clock"
	"transformrecorder/internal/sequence"
	"transformrecorder/internal/transform"
)

// Channel is one of the recordable slots.
type Channel struct {
	Ordinal int
	Name    string
	Source  transform.Source
}

// Bound reports whether a source is assigned to the channel.
func (c Channel) Bound() bool { return c.Source != nil }

// Session owns the clock, channel bindings, and sample buffers of one capture.
type Session struct {
	id        string
	clock     *clock.Clock
	channels  [NumChannels]Channel
	buffer    Buffer
	events    int
	startedAt time.Time
}

// NewSession returns an empty session timed by source (nil uses the system
// monotonic clock).
func NewSession(source clock.TimeSource) *Session {
	s := &Session{clock: clock.New(source)}
	s.resetChannels()
	s.id = uuid.NewString()
	return s
}

// ID returns the session identifier. It changes on every Reset.
func (s *Session) ID() string { return s.id }

// Clock returns the session clock.
func (s *Session) Clock() *clock.Clock { return s.clock }

// Buffer returns the session sample buffer.
func (s *Session) Buffer() *Buffer { return &s.buffer }

// Events returns the number of change events sampled.
func (s *Session) Events() int { return s.events }

// StartedAt returns the wall time of the first sampled event, or the zero
// time if nothing was sampled yet.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Bind assigns src to the channel. The channel takes the source's name unless
// name is non-empty. The resulting name must pass sequence.ValidateName.
func (s *Session) Bind(ordinal int, src transform.Source, name string) error {
	idx, err := channelIndex(ordinal)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("bind channel %d: %w", ordinal, ErrNilSource)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(src.Name())
	}
	if err := sequence.ValidateName(name); err != nil {
		return fmt.Errorf("bind channel %d: %w", ordinal, err)
	}
	s.channels[idx] = Channel{Ordinal: ordinal, Name: name, Source: src}
	return nil
}

// Unbind clears the channel binding.
func (s *Session) Unbind(ordinal int) error {
	idx, err := channelIndex(ordinal)
	if err != nil {
		return err
	}
	s.channels[idx] = Channel{Ordinal: ordinal}
	return nil
}

// Channel returns the channel with the given ordinal.
func (s *Session) Channel(ordinal int) (Channel, error) {
	idx, err := channelIndex(ordinal)
	if err != nil {
		return Channel{}, err
	}
	return s.channels[idx], nil
}

// Channels returns all channels in ordinal order, bound or not.
func (s *Session) Channels() []Channel {
	out := make([]Channel, NumChannels)
	copy(out, s.channels[:])
	return out
}

// BoundChannels returns the bound channels in ordinal order.
func (s *Session) BoundChannels() []Channel {
	out := make([]Channel, 0, NumChannels)
	for _, ch := range s.channels {
		if ch.Bound() {
			out = append(out, ch)
		}
	}
	return out
}

// sample reads every bound channel and appends one sample each, all stamped
// with timestamp. Matrices are read before anything is appended so a failed
// read leaves the buffers untouched.
func (s *Session) sample(timestamp float64, now time.Time) error {
	bound := s.BoundChannels()
	matrices := make([]transform.Matrix, len(bound))
	for i, ch := range bound {
		m, err := ch.Source.Matrix()
		if err != nil {
			return fmt.Errorf("read channel %d (%s): %w", ch.Ordinal, ch.Name, err)
		}
		matrices[i] = m
	}
	for i, ch := range bound {
		if err := s.buffer.Append(ch.Ordinal, timestamp, matrices[i]); err != nil {
			return err
		}
	}
	if s.events == 0 {
		s.startedAt = now
	}
	s.events++
	return nil
}

// Reset clears buffers, channel bindings, and the clock, and assigns a new
// session ID.
func (s *Session) Reset() {
	s.buffer.Reset()
	s.resetChannels()
	s.clock.Reset()
	s.events = 0
	s.startedAt = time.Time{}
	s.id = uuid.NewString()
}

func (s *Session) resetChannels() {
	for i := range s.channels {
		s.channels[i] = Channel{Ordinal: i + 1}
	}
}
