package sequence

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"transformrecorder/internal/fileutil"
	"transformrecorder/internal/logging"
	"transformrecorder/internal/textutil"
	"transformrecorder/internal/transform"
)

const (
	// DefaultPrefix starts every recording file name.
	DefaultPrefix = "TransformRecorder"
	// Extension is the sequence file extension.
	Extension = ".mha"
	// timestampLayout yields the "_YYYY-MM-DD_HH-MM-SS" suffix.
	timestampLayout = "_2006-01-02_15-04-05"
)

// Result describes a sequence file written for one channel.
type Result struct {
	Ordinal int
	Channel string
	Path    string
	Frames  int
	Size    int64
	SHA256  string
}

// Encoder serializes buffered channel samples into sequence files.
type Encoder struct {
	dir           string
	prefix        string
	legacyDimSize bool
	now           func() time.Time
	logger        *slog.Logger
}

// Option customizes an Encoder.
type Option func(*Encoder)

// WithPrefix overrides DefaultPrefix in generated file names.
func WithPrefix(prefix string) Option {
	return func(e *Encoder) {
		if p := strings.TrimSpace(prefix); p != "" {
			e.prefix = p
		}
	}
}

// WithLegacyDimSize writes the fixed "DimSize = 1 1 500" footer regardless of
// the frame count, for readers that expect the historical placeholder.
func WithLegacyDimSize() Option {
	return func(e *Encoder) { e.legacyDimSize = true }
}

// WithClock overrides the wall clock used for the file name timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) { e.logger = logger }
}

// NewEncoder returns an encoder writing into dir.
func NewEncoder(dir string, opts ...Option) *Encoder {
	e := &Encoder{
		dir:    dir,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "sequence")
	return e
}

// Dir returns the output directory.
func (e *Encoder) Dir() string { return e.dir }

// FileName builds the base file name (without directory) for a channel
// recording started at the given local time.
func FileName(prefix string, ordinal int, name string, at time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	safe := textutil.SanitizeFileName(name)
	return prefix + "_" + strconv.Itoa(ordinal) + "_" + safe + "_" + at.Local().Format(timestampLayout) + Extension
}

// WriteChannel encodes samples for one channel into a new file under the
// encoder directory. The file only appears once it has been written
// completely; every failure is returned as a *WriteError.
func (e *Encoder) WriteChannel(ordinal int, name string, samples []transform.Sample) (Result, error) {
	fail := func(path string, err error) (Result, error) {
		return Result{}, &WriteError{Ordinal: ordinal, Channel: name, Path: path, Err: err}
	}

	if err := ValidateName(name); err != nil {
		return fail("", err)
	}
	if err := fileutil.CheckWritableDir(e.dir); err != nil {
		return fail("", fmt.Errorf("%w: %w", ErrOutputNotWritable, err))
	}

	base := strings.TrimSuffix(FileName(e.prefix, ordinal, name, e.now()), Extension)
	path, err := fileutil.AvailablePath(e.dir, base, Extension)
	if err != nil {
		return fail("", err)
	}

	written, err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return e.Encode(w, name, samples)
	})
	if err != nil {
		return fail(path, fmt.Errorf("write sequence: %w", err))
	}

	e.logger.Info("sequence file written",
		logging.Int(logging.FieldOrdinal, ordinal),
		logging.String(logging.FieldChannel, name),
		logging.Int(logging.FieldFrames, len(samples)),
		logging.String(logging.FieldPath, path),
	)

	return Result{
		Ordinal: ordinal,
		Channel: name,
		Path:    path,
		Frames:  len(samples),
		Size:    written.Size,
		SHA256:  written.SHA256,
	}, nil
}

// Encode writes the complete sequence document for name to w.
func (e *Encoder) Encode(w io.Writer, name string, samples []transform.Sample) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	lw := &lineWriter{w: w}

	for _, field := range headerFields {
		lw.field(field[0], field[1])
	}
	transformField := TransformFieldName(name)
	statusField := StatusFieldName(name)
	lw.field(keyCustomFrame, transformField+" "+fieldTimestamp+" "+fieldFrameNumber+" "+statusField)
	lw.field(keyDefaultFrame, transformField)

	for i, sample := range samples {
		key := FrameKey(i)
		lw.field(key+"_"+fieldFrameNumber, strconv.Itoa(i))
		lw.field(key+"_"+statusField, statusOK)
		lw.field(key+"_"+transformField, FormatMatrix(sample.Matrix))
		lw.field(key+"_"+fieldTimestamp, FormatTimestamp(sample.Timestamp))
	}

	frames := len(samples)
	if e != nil && e.legacyDimSize {
		frames = legacyFrameCount
	}
	lw.field(keyOrientation, valueOrientation)
	lw.field(keyDimSize, "1 1 "+strconv.Itoa(frames))
	lw.field(keyKinds, valueKinds)
	lw.field(keyElementType, valueElementType)
	lw.field(keyElementData, valueElementData)

	return lw.err
}

// lineWriter writes "key = value" lines and keeps the first error.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) field(key, value string) {
	if lw.err != nil {
		return
	}
	_, lw.err = io.WriteString(lw.w, key+" = "+value+"\n")
}
