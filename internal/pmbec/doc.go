// Package pmbec builds the PMBEC residue substitution matrix.
//
// The PMBEC coefficient table is a 20x20 covariance of amino-acid
// substitution preferences. Build normalizes it to correlations, scales by
// 100 and rounds to integers, then extends the result with the special
// letters B, Z, X and * whose cells are all zero. The resulting Matrix is
// immutable and shared read-only by every alignment backend.
package pmbec
