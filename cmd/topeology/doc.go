// Package main hosts the topeology CLI entrypoint and command graph.
//
// The Cobra-based command tree loads the PMBEC matrix and the curated IEDB
// reference set, scores candidate epitopes against it, and renders or stores
// the results. It centralizes configuration resolution and structured logging
// setup so subcommands can focus on inputs and output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
