// Package config loads, normalizes, and validates topeology configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TOPEOLOGY_PMBEC_PATH and TOPEOLOGY_IEDB_PATH. The Config type centralizes
// every knob the CLI needs: reference data locations, curation thresholds,
// comparison mode, scoring backend, result store, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
