// Package logging assembles structured slog loggers and formatting helpers used
// across the recorder.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so capture code can tag log lines with
// the session identifier. The package also provides a no-op logger for tests
// and library callers that do not want output.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
