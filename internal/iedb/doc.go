// Package iedb curates the reference epitope set from an IEDB T-cell assay
// export.
//
// Rows are restricted to human hosts, stripped of self (human source)
// epitopes and any caller exclusions, reduced to valid standard-residue
// sequences of the allowed lengths, and finally kept only when the share of
// positive assays for a (sequence, length) group meets the positive-ratio
// threshold.
package iedb
