package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains reference data and working directory locations.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	PMBECPath string `toml:"pmbec_path"`
	IEDBPath  string `toml:"iedb_path"`
}

// Filter excludes reference rows whose Column contains On.
type Filter struct {
	On            string `toml:"on"`
	Column        string `toml:"column"`
	CaseSensitive bool   `toml:"case_sensitive"`
}

// Curation contains reference epitope set curation settings.
type Curation struct {
	// PositiveRatio is the minimum fraction of positive T-cell assays a
	// (sequence, length) group needs to be retained. Default: 0.6
	PositiveRatio   float64  `toml:"positive_ratio"`
	IncludeHLA      bool     `toml:"include_hla"`
	IncludeOrganism bool     `toml:"include_organism"`
	Filters         []Filter `toml:"filters"`
}

// Comparison contains candidate-versus-reference comparison settings.
type Comparison struct {
	EpitopeLengths []int  `toml:"epitope_lengths"`
	Mode           string `toml:"mode"`
	SkipInvalid    bool   `toml:"skip_invalid"`
}

// Scoring selects the alignment backend.
type Scoring struct {
	Backend string `toml:"backend"`
	// Workers bounds batch scoring fan-out; 0 uses GOMAXPROCS.
	Workers int `toml:"workers"`
}

// Store contains configuration for the SQLite result store.
type Store struct {
	Enabled            bool   `toml:"enabled"`
	Path               string `toml:"path"`
	CacheReferenceSets bool   `toml:"cache_reference_sets"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for topeology.
//
// Configuration sections by subsystem:
//   - Paths: PMBEC covariance table, IEDB export, data and log directories
//   - Curation: positive-ratio threshold, HLA/organism detail, exclusion filters
//   - Comparison: allowed epitope lengths, mutant/wildtype mode
//   - Scoring: alignment backend and worker fan-out
//   - Store: SQLite persistence of runs and curated reference sets
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Curation   Curation   `toml:"curation"`
	Comparison Comparison `toml:"comparison"`
	Scoring    Scoring    `toml:"scoring"`
	Store      Store      `toml:"store"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("topeology.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the SQLite database location, defaulting to the data directory.
func (c *Config) StorePath() string {
	if strings.TrimSpace(c.Store.Path) != "" {
		return c.Store.Path
	}
	return filepath.Join(c.Paths.DataDir, "topeology.db")
}

// IncludeWildtype reports whether comparisons also score the wildtype sequence.
func (c *Config) IncludeWildtype() bool {
	return c.Comparison.Mode == ModeWildtype
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
