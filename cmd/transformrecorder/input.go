package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"transformrecorder/internal/transform"
)

// sampleLine is one parsed input update: a source name and its new matrix.
type sampleLine struct {
	number int
	name   string
	matrix transform.Matrix
}

// parseSampleLine parses "<name> <16 row-major values>". Blank lines and
// lines starting with '#' yield ok=false and no error.
func parseSampleLine(line string) (name string, m transform.Matrix, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", transform.Matrix{}, false, nil
	}
	fields := strings.Fields(line)
	if len(fields) != transform.Size+1 {
		return "", transform.Matrix{}, false, fmt.Errorf("expected name and %d values, got %d fields", transform.Size, len(fields))
	}
	values := make([]float64, transform.Size)
	for i, raw := range fields[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", transform.Matrix{}, false, fmt.Errorf("value %d: %w", i+1, err)
		}
		values[i] = v
	}
	m, err = transform.FromSlice(values)
	if err != nil {
		return "", transform.Matrix{}, false, err
	}
	return fields[0], m, true, nil
}

type lineResult struct {
	sample sampleLine
	err    error
}

// readSampleLines streams parsed updates from r until EOF or ctx is done. The
// returned channel is closed when reading stops. Parse failures are delivered
// with their line number and reading continues.
func readSampleLines(ctx context.Context, r io.Reader) <-chan lineResult {
	out := make(chan lineResult)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			name, m, ok, err := parseSampleLine(scanner.Text())
			var res lineResult
			switch {
			case err != nil:
				res.err = fmt.Errorf("line %d: %w", lineNo, err)
			case !ok:
				continue
			default:
				res.sample = sampleLine{number: lineNo, name: name, matrix: m}
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case out <- lineResult{err: fmt.Errorf("read input: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}
