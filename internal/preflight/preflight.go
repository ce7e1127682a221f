package preflight

import (
	"context"

	"topeology/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data directory (always checked)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckPMBEC(cfg.Paths.PMBECPath))
	results = append(results, CheckIEDB(cfg.Paths.IEDBPath))

	if cfg.Scoring.Backend != config.BackendPortable {
		results = append(results, CheckEngine(cfg))
	}

	if cfg.Store.Enabled {
		results = append(results, CheckStore(ctx, cfg))
	}

	return results
}
