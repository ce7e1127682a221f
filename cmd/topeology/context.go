package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"topeology/internal/config"
	"topeology/internal/fileutil"
	"topeology/internal/iedb"
	"topeology/internal/logging"
	"topeology/internal/pmbec"
	"topeology/internal/services"
	"topeology/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// configCopy returns a copy of the loaded configuration that a command may
// override with its flags.
func (c *commandContext) configCopy() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	clone := *cfg
	return &clone, nil
}

func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		var level string
		if c.logLevelFlag != nil {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		cfg, _ := c.ensureConfig()
		c.logger, c.loggerErr = logging.NewFromConfigTo(cfg, level, cmd.ErrOrStderr())
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) loadMatrix(cfg *config.Config, logger *slog.Logger) (*pmbec.Matrix, error) {
	matrix, err := pmbec.Load(cfg.Paths.PMBECPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("pmbec matrix loaded",
		logging.String("path", cfg.Paths.PMBECPath),
		logging.Int("gap_penalty", matrix.GapPenalty()),
	)
	return matrix, nil
}

// referenceSet curates the configured IEDB export. When the store caches
// reference sets, a cached set for the same options and export stamp is
// reused, and a miss is curated and saved under the cache lock.
func (c *commandContext) referenceSet(ctx context.Context, cfg *config.Config, opts iedb.CurateOptions, logger *slog.Logger) ([]iedb.ReferenceEpitope, error) {
	path := cfg.Paths.IEDBPath
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "load",
			"no IEDB export configured (set paths.iedb_path, TOPEOLOGY_IEDB_PATH, or --iedb)", nil)
	}
	opts.Logger = logger

	if !cfg.Store.Enabled || !cfg.Store.CacheReferenceSets {
		return curateExport(path, opts, logger)
	}

	stamp, err := fileutil.StatStamp(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "stat", path, err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	key := store.ReferenceSetKey(opts, stamp)
	var refs []iedb.ReferenceEpitope
	err = st.WithCacheLock(ctx, func() error {
		cached, ok, err := st.LoadReferenceSet(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			logger.Info("using cached reference set",
				logging.String("cache_key", key[:12]),
				logging.Int("epitopes", len(cached)),
			)
			refs = cached
			return nil
		}
		curated, err := curateExport(path, opts, logger)
		if err != nil {
			return err
		}
		refs = curated
		return st.SaveReferenceSet(ctx, key, path, curated)
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func curateExport(path string, opts iedb.CurateOptions, logger *slog.Logger) ([]iedb.ReferenceEpitope, error) {
	columns := make([]string, 0, len(opts.Filters))
	for _, f := range opts.Filters {
		columns = append(columns, f.Column)
	}
	rows, err := iedb.LoadRows(path, columns...)
	if err != nil {
		return nil, err
	}
	refs, report, err := iedb.CurateWithReport(rows, opts)
	if err != nil {
		return nil, fmt.Errorf("curate %s: %w", path, err)
	}
	logger.Info("reference set curated",
		logging.String("path", path),
		logging.Int("rows", report.Input),
		logging.Int("human_host", report.HumanHost),
		logging.Int("groups", report.Groups),
		logging.Int("retained_groups", report.RetainedGroups),
		logging.Int("epitopes", report.Epitopes),
	)
	return refs, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
