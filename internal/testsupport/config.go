package testsupport

import (
	"path/filepath"
	"testing"

	"topeology/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The PMBEC path points at a synthetic covariance table written into the
// temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PMBECPath = WriteSyntheticPMBEC(t, base)
	cfgVal.Paths.IEDBPath = filepath.Join(base, "tcell_full_v3.csv")
	cfgVal.Scoring.Backend = config.BackendPortable
	cfgVal.Scoring.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithIEDBExport writes rows (already CSV-encoded, header included) to the
// configured IEDB path.
func WithIEDBExport(content string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.IEDBPath, content)
	}
}

// WithBackend overrides the scoring backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scoring.Backend = backend
	}
}

// WithStore enables the SQLite result store under the temp data directory.
func WithStore() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Enabled = true
		b.cfg.Store.Path = filepath.Join(b.baseDir, "data", "topeology.db")
	}
}

// WithPositiveRatio overrides the curation threshold.
func WithPositiveRatio(ratio float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.PositiveRatio = ratio
	}
}
