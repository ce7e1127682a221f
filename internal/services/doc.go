// Package services defines the error taxonomy and context helpers shared by
// the topeology pipeline stages.
//
// Key responsibilities:
//   - Structured error markers (data unavailable, invalid sequence, length
//     mismatch, backend unavailable, configuration) plus the Wrap helper that
//     attaches stage and operation context while keeping errors.Is working.
//   - Context helpers that stamp run identifiers, stage names, and sample IDs
//     so log lines emitted deep inside scoring can be correlated.
//
// Use these helpers when wiring new stage logic so failures read the same way
// from the curator, the scorers, and the CLI.
package services
