// Package store persists comparison runs and curated reference sets in a
// SQLite database.
//
// Runs are keyed by UUID and keep every scored record in input order.
// Reference sets are cached under a key derived from the curation options
// and the IEDB export's size and modification time, so an unchanged export
// is curated once.
package store
