package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"transformrecorder/internal/transform"
)

// Frame is one parsed frame record.
type Frame struct {
	Index       int
	FrameNumber int
	Status      string
	Matrix      transform.Matrix
	Timestamp   float64
}

// Sequence is a parsed sequence file.
type Sequence struct {
	// Fields holds every non-frame "key = value" line in file order.
	Fields []Field
	// TransformName is the DefaultFrameTransformName value, e.g. "StylusTransform".
	TransformName string
	Frames        []Frame
}

// Field is a single header or footer entry.
type Field struct {
	Key   string
	Value string
}

// Value returns the first value stored for key.
func (s *Sequence) Value(key string) (string, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// ChannelName returns the channel name derived from the transform field.
func (s *Sequence) ChannelName() string {
	return strings.TrimSuffix(s.TransformName, suffixTransform)
}

// Duration returns the timestamp of the last frame.
func (s *Sequence) Duration() float64 {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[len(s.Frames)-1].Timestamp
}

// ReadFile parses the sequence file at path.
func ReadFile(path string) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

type partialFrame struct {
	frame    Frame
	seen     uint8
	lastLine int
}

const (
	seenNumber uint8 = 1 << iota
	seenStatus
	seenMatrix
	seenTimestamp
	seenAll = seenNumber | seenStatus | seenMatrix | seenTimestamp
)

// Read parses a sequence document. Every frame must carry all four frame
// fields; frames are returned ordered by index.
func Read(r io.Reader) (*Sequence, error) {
	seq := &Sequence{}
	frames := make(map[int]*partialFrame)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing '='", ErrMalformed, lineNo)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if !strings.HasPrefix(key, framePrefix) {
			seq.Fields = append(seq.Fields, Field{Key: key, Value: value})
			if key == keyDefaultFrame {
				seq.TransformName = value
			}
			continue
		}
		if err := readFrameField(seq, frames, key, value, lineNo); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}

	indexes := make([]int, 0, len(frames))
	for idx := range frames {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	seq.Frames = make([]Frame, 0, len(indexes))
	for _, idx := range indexes {
		pf := frames[idx]
		if pf.seen != seenAll {
			return nil, fmt.Errorf("%w: line %d: frame %d is missing fields", ErrMalformed, pf.lastLine, idx)
		}
		seq.Frames = append(seq.Frames, pf.frame)
	}
	return seq, nil
}

func readFrameField(seq *Sequence, frames map[int]*partialFrame, key, value string, lineNo int) error {
	rest := strings.TrimPrefix(key, framePrefix)
	digits, field, ok := strings.Cut(rest, "_")
	if !ok || len(digits) < frameIndexWidth {
		return fmt.Errorf("%w: line %d: bad frame key %q", ErrMalformed, lineNo, key)
	}
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return fmt.Errorf("%w: line %d: bad frame index %q", ErrMalformed, lineNo, digits)
	}

	pf, ok := frames[index]
	if !ok {
		pf = &partialFrame{frame: Frame{Index: index}}
		frames[index] = pf
	}
	pf.lastLine = lineNo

	switch {
	case field == fieldFrameNumber:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: line %d: frame number %q", ErrMalformed, lineNo, value)
		}
		pf.frame.FrameNumber = n
		pf.seen |= seenNumber
	case field == fieldTimestamp:
		ts, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: timestamp %q", ErrMalformed, lineNo, value)
		}
		pf.frame.Timestamp = ts
		pf.seen |= seenTimestamp
	case strings.HasSuffix(field, suffixStatus):
		pf.frame.Status = value
		pf.seen |= seenStatus
	case strings.HasSuffix(field, suffixTransform):
		if seq.TransformName != "" && field != seq.TransformName {
			return fmt.Errorf("%w: line %d: transform %q does not match %q", ErrMalformed, lineNo, field, seq.TransformName)
		}
		m, err := parseMatrix(value)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
		pf.frame.Matrix = m
		pf.seen |= seenMatrix
	}
	return nil
}

func parseMatrix(value string) (transform.Matrix, error) {
	parts := strings.Fields(value)
	if len(parts) != transform.Size {
		return transform.Matrix{}, fmt.Errorf("transform has %d values, want %d", len(parts), transform.Size)
	}
	values := make([]float64, transform.Size)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return transform.Matrix{}, fmt.Errorf("transform value %q: %w", p, err)
		}
		values[i] = v
	}
	return transform.FromSlice(values)
}
