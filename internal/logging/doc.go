// Package logging assembles structured slog loggers and formatting helpers used
// across topeology.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so scoring code can tag log lines with run
// IDs, stages, and sample identifiers. A no-op logger is provided for tests and
// wiring code that cannot fail.
//
// Loggers write to stderr by default so tabular results on stdout stay clean
// when piped.
package logging
