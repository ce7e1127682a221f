package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCuration()
	c.normalizeComparison()
	c.normalizeScoring()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.PMBECPath) == "" {
		if value, ok := os.LookupEnv("TOPEOLOGY_PMBEC_PATH"); ok {
			c.Paths.PMBECPath = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.IEDBPath) == "" {
		if value, ok := os.LookupEnv("TOPEOLOGY_IEDB_PATH"); ok {
			c.Paths.IEDBPath = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}

	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.PMBECPath, err = expandPath(strings.TrimSpace(c.Paths.PMBECPath)); err != nil {
		return fmt.Errorf("paths.pmbec_path: %w", err)
	}
	if c.Paths.IEDBPath, err = expandPath(strings.TrimSpace(c.Paths.IEDBPath)); err != nil {
		return fmt.Errorf("paths.iedb_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCuration() {
	filters := make([]Filter, 0, len(c.Curation.Filters))
	for _, f := range c.Curation.Filters {
		f.On = strings.TrimSpace(f.On)
		f.Column = strings.TrimSpace(f.Column)
		if f.On == "" && f.Column == "" {
			continue
		}
		filters = append(filters, f)
	}
	c.Curation.Filters = filters
}

func (c *Config) normalizeComparison() {
	if len(c.Comparison.EpitopeLengths) == 0 {
		c.Comparison.EpitopeLengths = DefaultEpitopeLengths()
	} else {
		c.Comparison.EpitopeLengths = NormalizeLengths(c.Comparison.EpitopeLengths)
	}
	c.Comparison.Mode = strings.ToLower(strings.TrimSpace(c.Comparison.Mode))
	if c.Comparison.Mode == "" {
		c.Comparison.Mode = ModeMutant
	}
}

func (c *Config) normalizeScoring() {
	c.Scoring.Backend = strings.ToLower(strings.TrimSpace(c.Scoring.Backend))
	if c.Scoring.Backend == "" {
		c.Scoring.Backend = BackendAuto
	}
}

func (c *Config) normalizeStore() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = ""
		return nil
	}
	var err error
	if c.Store.Path, err = expandPath(strings.TrimSpace(c.Store.Path)); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeLengths returns the distinct lengths in ascending order.
func NormalizeLengths(lengths []int) []int {
	seen := make(map[int]struct{}, len(lengths))
	out := make([]int, 0, len(lengths))
	for _, l := range lengths {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
