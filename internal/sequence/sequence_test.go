package sequence_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transformrecorder/internal/sequence"
	"transformrecorder/internal/testsupport"
	"transformrecorder/internal/transform"
)

var recordedAt = time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)

func samples(n int) []transform.Sample {
	out := make([]transform.Sample, n)
	for i := range out {
		m := transform.Translation(float64(i)*0.1, -1.0/3.0, 1e-9*float64(i))
		m[0] = math.Cos(float64(i))
		out[i] = transform.Sample{Timestamp: float64(i) * 0.033, Matrix: m}
	}
	return out
}

func TestEncodeReadRoundTrip(t *testing.T) {
	in := samples(40)
	var buf bytes.Buffer
	if err := sequence.NewEncoder(t.TempDir()).Encode(&buf, "Probe", in); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	seq, err := sequence.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if seq.TransformName != "ProbeTransform" || seq.ChannelName() != "Probe" {
		t.Fatalf("unexpected transform name %q", seq.TransformName)
	}
	if len(seq.Frames) != len(in) {
		t.Fatalf("expected %d frames, got %d", len(in), len(seq.Frames))
	}
	for i, f := range seq.Frames {
		if f.Index != i || f.FrameNumber != i || f.Status != "OK" {
			t.Fatalf("frame %d: unexpected header %+v", i, f)
		}
		if f.Timestamp != in[i].Timestamp {
			t.Fatalf("frame %d: timestamp %v != %v", i, f.Timestamp, in[i].Timestamp)
		}
		for k := 0; k < 12; k++ {
			if f.Matrix[k] != in[i].Matrix[k] {
				t.Fatalf("frame %d entry %d: %v != %v", i, k, f.Matrix[k], in[i].Matrix[k])
			}
		}
		if f.Matrix.At(3, 0) != 0 || f.Matrix.At(3, 3) != 1 {
			t.Fatalf("frame %d: unexpected homogeneous row", i)
		}
	}
	if dim, _ := seq.Value("DimSize"); dim != "1 1 40" {
		t.Fatalf("unexpected DimSize %q", dim)
	}
	if got := seq.Duration(); got != in[len(in)-1].Timestamp {
		t.Fatalf("unexpected duration %v", got)
	}
}

func TestLegacyDimSize(t *testing.T) {
	var buf bytes.Buffer
	enc := sequence.NewEncoder(t.TempDir(), sequence.WithLegacyDimSize())
	if err := enc.Encode(&buf, "Stylus", samples(3)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "\nDimSize = 1 1 500\n") {
		t.Fatalf("expected legacy DimSize, got:\n%s", buf.String())
	}
}

func TestEmptySequenceStillValid(t *testing.T) {
	var buf bytes.Buffer
	if err := sequence.NewEncoder(t.TempDir()).Encode(&buf, "Stylus", nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	seq, err := sequence.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(seq.Frames) != 0 {
		t.Fatalf("expected no frames, got %d", len(seq.Frames))
	}
	if dim, _ := seq.Value("DimSize"); dim != "1 1 0" {
		t.Fatalf("unexpected DimSize %q", dim)
	}
}

func TestFrameKeyWidensPastFourDigits(t *testing.T) {
	cases := map[int]string{
		0:     "Seq_Frame0000",
		7:     "Seq_Frame0007",
		9999:  "Seq_Frame9999",
		10000: "Seq_Frame10000",
	}
	for index, want := range cases {
		if got := sequence.FrameKey(index); got != want {
			t.Fatalf("FrameKey(%d) = %q, want %q", index, got, want)
		}
	}

	var buf bytes.Buffer
	if err := sequence.NewEncoder(t.TempDir()).Encode(&buf, "Needle", samples(10001)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	seq, err := sequence.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(seq.Frames) != 10001 || seq.Frames[10000].FrameNumber != 10000 {
		t.Fatalf("unexpected frames after widening: %d", len(seq.Frames))
	}
}

func TestFormatMatrix(t *testing.T) {
	got := sequence.FormatMatrix(transform.Translation(1.5, -2, 0.25))
	want := "1 0 0 1.5 0 1 0 -2 0 0 1 0.25 0.0 0.0 0.0 1.0"
	if got != want {
		t.Fatalf("FormatMatrix = %q, want %q", got, want)
	}
	if ts := sequence.FormatTimestamp(0.1); ts != "0.1" {
		t.Fatalf("FormatTimestamp = %q", ts)
	}
}

func TestFileName(t *testing.T) {
	got := sequence.FileName("", 2, "Stylus", recordedAt)
	if got != "TransformRecorder_2_Stylus__2026-10-14_09-30-00.mha" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := sequence.FileName("Lab", 1, "my probe/tip", recordedAt); got != "Lab_1_my-probe-tip__2026-10-14_09-30-00.mha" {
		t.Fatalf("unexpected sanitized file name %q", got)
	}
}

func TestWriteChannel(t *testing.T) {
	dir := t.TempDir()
	enc := sequence.NewEncoder(dir,
		sequence.WithPrefix("Session"),
		sequence.WithClock(func() time.Time { return recordedAt }),
	)
	in := samples(5)

	res, err := enc.WriteChannel(3, "Reference", in)
	if err != nil {
		t.Fatalf("WriteChannel: %v", err)
	}
	if res.Ordinal != 3 || res.Channel != "Reference" || res.Frames != 5 {
		t.Fatalf("unexpected result %+v", res)
	}
	if filepath.Base(res.Path) != "Session_3_Reference__2026-10-14_09-30-00.mha" {
		t.Fatalf("unexpected path %q", res.Path)
	}
	info, err := os.Stat(res.Path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() != res.Size || len(res.SHA256) != 64 {
		t.Fatalf("unexpected size/hash %d %q", res.Size, res.SHA256)
	}

	again, err := enc.WriteChannel(3, "Reference", in)
	if err != nil {
		t.Fatalf("second WriteChannel: %v", err)
	}
	if filepath.Base(again.Path) != "Session_3_Reference__2026-10-14_09-30-00-1.mha" {
		t.Fatalf("expected collision suffix, got %q", again.Path)
	}

	seq, err := sequence.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(seq.Frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(seq.Frames))
	}
	if files := testsupport.SequenceFiles(t, dir); len(files) != 2 {
		t.Fatalf("expected two files, got %v", files)
	}
}

func TestWriteChannelErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	_, err := sequence.NewEncoder(missing).WriteChannel(1, "Stylus", samples(1))
	if !errors.Is(err, sequence.ErrOutputNotWritable) {
		t.Fatalf("expected ErrOutputNotWritable, got %v", err)
	}
	var writeErr *sequence.WriteError
	if !errors.As(err, &writeErr) || writeErr.Ordinal != 1 || writeErr.Channel != "Stylus" {
		t.Fatalf("expected WriteError naming the channel, got %v", err)
	}

	_, err = sequence.NewEncoder(t.TempDir()).WriteChannel(1, "  ", samples(1))
	if !errors.Is(err, sequence.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no separator":    "ObjectType Image\n",
		"bad index":       "Seq_FrameXXXX_FrameNumber = 0\n",
		"short index":     "Seq_Frame01_FrameNumber = 0\n",
		"bad timestamp":   "Seq_Frame0000_Timestamp = soon\n",
		"short matrix":    "DefaultFrameTransformName = StylusTransform\nSeq_Frame0000_StylusTransform = 1 0 0\n",
		"missing fields":  "Seq_Frame0000_FrameNumber = 0\nSeq_Frame0000_Timestamp = 0\n",
		"other transform": "DefaultFrameTransformName = StylusTransform\nSeq_Frame0000_ProbeTransform = 1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := sequence.Read(strings.NewReader(input)); !errors.Is(err, sequence.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestEncodeRejectsNamesThatBreakFieldKeys(t *testing.T) {
	dir := t.TempDir()
	enc := sequence.NewEncoder(dir)
	for _, name := range []string{"A=B", "Sty\nlus", "My Stylus", "Tab\tName", "Bell\a"} {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, name, samples(1)); !errors.Is(err, sequence.ErrInvalidName) {
			t.Fatalf("Encode %q: expected ErrInvalidName, got %v", name, err)
		}
		if buf.Len() != 0 {
			t.Fatalf("Encode %q: expected nothing written, got %q", name, buf.String())
		}
		if _, err := enc.WriteChannel(1, name, samples(1)); !errors.Is(err, sequence.ErrInvalidName) {
			t.Fatalf("WriteChannel %q: expected ErrInvalidName, got %v", name, err)
		}
	}
	if files := testsupport.SequenceFiles(t, dir); len(files) != 0 {
		t.Fatalf("expected no files for rejected names, got %v", files)
	}

	for _, name := range []string{"Stylus", "Probe-2", "Ref_A.1"} {
		if err := sequence.ValidateName(name); err != nil {
			t.Fatalf("ValidateName %q: %v", name, err)
		}
		var buf bytes.Buffer
		if err := enc.Encode(&buf, name, samples(2)); err != nil {
			t.Fatalf("Encode %q: %v", name, err)
		}
		seq, err := sequence.Read(&buf)
		if err != nil {
			t.Fatalf("Read %q: %v", name, err)
		}
		if seq.ChannelName() != name {
			t.Fatalf("expected channel %q, got %q", name, seq.ChannelName())
		}
	}
}
