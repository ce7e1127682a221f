// Package align scores epitope similarity by local alignment over the PMBEC
// substitution matrix.
//
// Two backends share one contract. PortableScorer runs the dynamic program
// directly against the matrix. NativeScorer hands the flattened matrix to an
// Engine and relays its integer scores. Both trim flanking residues the same
// way and report scores in matrix units divided by 100, so for any valid pair
// their results are identical.
package align
