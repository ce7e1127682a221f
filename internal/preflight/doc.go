// Package preflight provides readiness checks for the reference data,
// working directories, result store, and alignment engine that topeology
// depends on.
//
// The CLI "topeology check" command runs RunAll and reports each result;
// individual checks can also be called directly. Checks gated by a config
// toggle are skipped when the feature is disabled.
package preflight
