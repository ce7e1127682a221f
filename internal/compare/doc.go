// Package compare joins candidate epitopes to the curated reference set by
// length and scores every joined pair.
package compare
