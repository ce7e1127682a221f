// Package seqalign is an in-process flattened-matrix local aligner.
//
// An Engine is initialized once with a gap penalty and a 24x24 substitution
// matrix flattened row-major in the canonical PMBEC letter order. Sequences
// are matched case-insensitively; scores are in matrix units.
package seqalign
