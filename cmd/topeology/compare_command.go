package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"topeology/internal/align"
	"topeology/internal/compare"
	"topeology/internal/config"
	"topeology/internal/fileutil"
	"topeology/internal/iedb"
	"topeology/internal/logging"
	"topeology/internal/seqalign"
	"topeology/internal/services"
	"topeology/internal/store"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var (
		inputPath   string
		outputPath  string
		iedbPath    string
		lengths     []int
		wildtype    bool
		backend     string
		format      string
		save        bool
		skipInvalid bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Score candidate epitopes against the curated IEDB reference set",
		Long: "Reads candidate epitopes (sample, epitope[, epitope_wt]) and scores each one\n" +
			"against every curated IEDB epitope of the same length.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(inputPath) == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "compare", "--input is required", nil)
			}
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("iedb") {
				if cfg.Paths.IEDBPath, err = config.ExpandPath(iedbPath); err != nil {
					return err
				}
			}
			if flags.Changed("epitope-lengths") {
				cfg.Comparison.EpitopeLengths = config.NormalizeLengths(lengths)
			}
			if wildtype {
				cfg.Comparison.Mode = config.ModeWildtype
			}
			if flags.Changed("backend") {
				cfg.Scoring.Backend = strings.ToLower(strings.TrimSpace(backend))
			}
			if skipInvalid {
				cfg.Comparison.SkipInvalid = true
			}
			if save {
				cfg.Store.Enabled = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			target := cmd.OutOrStdout()
			if outputPath != "" {
				target = io.Discard
			}
			resolved, err := resolveFormat(format, target)
			if err != nil {
				return err
			}

			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}

			candidates, err := compare.LoadCandidates(inputPath)
			if err != nil {
				return err
			}
			matrix, err := ctx.loadMatrix(cfg, logger)
			if err != nil {
				return err
			}
			refs, err := ctx.referenceSet(cmd.Context(), cfg, iedb.OptionsFromConfig(cfg), logger)
			if err != nil {
				return err
			}
			scorer, err := align.Select(matrix, seqalign.New(cfg.Scoring.Workers), align.OptionsFromConfig(cfg, logger))
			if err != nil {
				return err
			}

			runCtx := services.WithStage(cmd.Context(), "compare")
			var runID string
			if save {
				runID = store.NewRunID()
				runCtx = services.WithRunID(runCtx, runID)
			}
			opts := compare.OptionsFromConfig(cfg)
			records, err := compare.NewPipeline(scorer, logger).Compare(runCtx, candidates, refs, opts)
			if err != nil {
				return err
			}

			if save {
				run, err := saveRun(cmd, cfg, store.Run{
					ID:             runID,
					InputPath:      inputPath,
					Backend:        scorer.Backend(),
					Mode:           cfg.Comparison.Mode,
					PositiveRatio:  cfg.Curation.PositiveRatio,
					EpitopeLengths: cfg.Comparison.EpitopeLengths,
					CandidateCount: len(candidates),
					ReferenceCount: len(refs),
				}, records)
				if err != nil {
					return err
				}
				logger.Info("comparison run saved",
					logging.String(logging.FieldRunID, run.ID),
					logging.Int("records", run.RecordCount),
				)
			}

			write := func(w io.Writer) error {
				return writeRecords(w, resolved, records, opts.IncludeWildtype)
			}
			if outputPath != "" {
				if err := fileutil.WriteFileAtomic(outputPath, 0o644, write); err != nil {
					return fmt.Errorf("write %s: %w", outputPath, err)
				}
				return nil
			}
			return write(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Candidate epitope CSV (sample, epitope[, epitope_wt])")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write results to a file instead of stdout")
	cmd.Flags().StringVar(&iedbPath, "iedb", "", "IEDB T-cell assay export (overrides paths.iedb_path)")
	cmd.Flags().IntSliceVar(&lengths, "epitope-lengths", config.DefaultEpitopeLengths(), "Epitope lengths to compare")
	cmd.Flags().BoolVar(&wildtype, "wildtype", false, "Also score the epitope_wt column")
	cmd.Flags().StringVar(&backend, "backend", "", "Alignment backend: auto, portable, or native")
	cmd.Flags().StringVar(&format, "format", formatAuto, formatUsage)
	cmd.Flags().BoolVar(&save, "save", false, "Store the run and its records in the result store")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip candidates with invalid sequences instead of failing")

	return cmd
}

func saveRun(cmd *cobra.Command, cfg *config.Config, run store.Run, records []compare.Record) (store.Run, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()
	return st.SaveRun(cmd.Context(), run, records)
}

func writeRecords(w io.Writer, format string, records []compare.Record, includeWildtype bool) error {
	switch format {
	case formatJSON:
		return compare.WriteJSON(w, records)
	case formatTable:
		return compare.WriteTable(w, records, includeWildtype)
	default:
		return compare.WriteCSV(w, records, includeWildtype)
	}
}
