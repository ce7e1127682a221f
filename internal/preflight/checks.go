package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"topeology/internal/align"
	"topeology/internal/config"
	"topeology/internal/iedb"
	"topeology/internal/pmbec"
	"topeology/internal/seqalign"
	"topeology/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPMBEC loads the coefficient table and reports the derived gap penalty.
func CheckPMBEC(path string) Result {
	const name = "PMBEC table"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured (set paths.pmbec_path or TOPEOLOGY_PMBEC_PATH)"}
	}
	matrix, err := pmbec.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (gap penalty %d)", path, matrix.GapPenalty())}
}

// CheckIEDB verifies the export is readable and carries the required columns.
func CheckIEDB(path string) Result {
	const name = "IEDB export"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured (set paths.iedb_path or TOPEOLOGY_IEDB_PATH)"}
	}
	columns, err := iedb.CheckExport(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d columns)", path, len(columns))}
}

// CheckEngine probes the native alignment engine with the configured matrix.
// A failed probe is reported but scoring still works through the portable
// backend unless the native backend was requested explicitly.
func CheckEngine(cfg *config.Config) Result {
	const name = "Native engine"
	matrix, err := pmbec.Load(cfg.Paths.PMBECPath)
	if err != nil {
		return Result{Name: name, Detail: "skipped: PMBEC table unavailable"}
	}
	if _, err := align.NewNativeScorer(matrix, seqalign.New(cfg.Scoring.Workers)); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "initialized"}
}

// CheckStore opens the result store, which also verifies its schema.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Result store"
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	st, err := store.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer st.Close()
	return Result{Name: name, Passed: true, Detail: st.Path()}
}
