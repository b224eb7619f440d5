package capture

import (
	"fmt"

	"transformrecorder/internal/transform"
)

// NumChannels is the number of recordable channels.
const NumChannels = 3

// Buffer holds the append-only sample sequences of every channel.
type Buffer struct {
	channels [NumChannels][]transform.Sample
}

func channelIndex(ordinal int) (int, error) {
	if ordinal < 1 || ordinal > NumChannels {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, ordinal)
	}
	return ordinal - 1, nil
}

// Append adds one sample to the channel. Timestamps must not decrease.
func (b *Buffer) Append(ordinal int, timestamp float64, m transform.Matrix) error {
	idx, err := channelIndex(ordinal)
	if err != nil {
		return err
	}
	seq := b.channels[idx]
	if n := len(seq); n > 0 && timestamp < seq[n-1].Timestamp {
		return fmt.Errorf("%w: channel %d: %v < %v", ErrTimestampOrder, ordinal, timestamp, seq[n-1].Timestamp)
	}
	b.channels[idx] = append(seq, transform.Sample{Timestamp: timestamp, Matrix: m})
	return nil
}

// Drain returns a copy of the channel's samples, clearing them when clear is
// set. An invalid ordinal yields nil.
func (b *Buffer) Drain(ordinal int, clear bool) []transform.Sample {
	idx, err := channelIndex(ordinal)
	if err != nil {
		return nil
	}
	out := make([]transform.Sample, len(b.channels[idx]))
	copy(out, b.channels[idx])
	if clear {
		b.channels[idx] = nil
	}
	return out
}

// Count returns the number of samples buffered for the channel.
func (b *Buffer) Count(ordinal int) int {
	idx, err := channelIndex(ordinal)
	if err != nil {
		return 0
	}
	return len(b.channels[idx])
}

// Reset discards every channel's samples.
func (b *Buffer) Reset() {
	for i := range b.channels {
		b.channels[i] = nil
	}
}
