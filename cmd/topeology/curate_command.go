package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"topeology/internal/compare"
	"topeology/internal/config"
	"topeology/internal/iedb"
	"topeology/internal/services"
)

func newCurateCommand(ctx *commandContext) *cobra.Command {
	var (
		iedbPath      string
		lengths       []int
		positiveRatio float64
		includeHLA    bool
		includeOrg    bool
		excludes      []string
		format        string
	)

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Curate the IEDB reference epitope set",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if flags.Changed("positive-ratio") {
				cfg.Curation.PositiveRatio = positiveRatio
			}
			if includeHLA {
				cfg.Curation.IncludeHLA = true
			}
			if includeOrg {
				cfg.Curation.IncludeOrganism = true
			}
			extra, err := parseExcludes(excludes)
			if err != nil {
				return err
			}
			cfg.Curation.Filters = append(append([]config.Filter(nil), cfg.Curation.Filters...), extra...)
			if err := cfg.Validate(); err != nil {
				return err
			}

			resolved, err := resolveFormat(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}

			refs, err := ctx.referenceSet(cmd.Context(), cfg, iedb.OptionsFromConfig(cfg), logger)
			if err != nil {
				return err
			}
			return writeReferenceSet(cmd, resolved, refs, cfg.Curation.IncludeHLA, cfg.Curation.IncludeOrganism)
		},
	}

	cmd.Flags().StringVar(&iedbPath, "iedb", "", "IEDB T-cell assay export (overrides paths.iedb_path)")
	cmd.Flags().IntSliceVar(&lengths, "epitope-lengths", config.DefaultEpitopeLengths(), "Epitope lengths to keep")
	cmd.Flags().Float64Var(&positiveRatio, "positive-ratio", iedb.DefaultPositiveRatio, "Minimum fraction of positive assays per epitope")
	cmd.Flags().BoolVar(&includeHLA, "hla", false, "Keep one row per class I HLA allele")
	cmd.Flags().BoolVar(&includeOrg, "organism", false, "Keep the source organism")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Exclude rows whose COLUMN contains TEXT (COLUMN=TEXT, repeatable)")
	cmd.Flags().StringVar(&format, "format", formatAuto, formatUsage)

	return cmd
}

// parseExcludes turns COLUMN=TEXT values into case-insensitive filters.
func parseExcludes(values []string) ([]config.Filter, error) {
	filters := make([]config.Filter, 0, len(values))
	for _, value := range values {
		column, on, ok := strings.Cut(value, "=")
		column = strings.TrimSpace(column)
		on = strings.TrimSpace(on)
		if !ok || column == "" || on == "" {
			return nil, services.Wrap(services.ErrConfiguration, "cli", "exclude",
				fmt.Sprintf("invalid --exclude %q (want COLUMN=TEXT)", value), nil)
		}
		filters = append(filters, config.Filter{On: on, Column: column})
	}
	return filters, nil
}

func writeReferenceSet(cmd *cobra.Command, format string, refs []iedb.ReferenceEpitope, includeHLA, includeOrg bool) error {
	out := cmd.OutOrStdout()
	if format == formatJSON {
		if refs == nil {
			refs = []iedb.ReferenceEpitope{}
		}
		return writeJSON(out, refs)
	}

	headers := []string{"iedb_epitope", "epitope_length", "positive_ratio"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight}
	if includeHLA {
		headers = append(headers, "hla")
		aligns = append(aligns, alignLeft)
	}
	if includeOrg {
		headers = append(headers, "organism")
		aligns = append(aligns, alignLeft)
	}
	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		row := []string{ref.Sequence, strconv.Itoa(ref.Length), compare.FormatScore(ref.PositiveRatio)}
		if includeHLA {
			row = append(row, ref.HLA)
		}
		if includeOrg {
			row = append(row, ref.Organism)
		}
		rows = append(rows, row)
	}
	return writeRows(out, format, headers, rows, aligns)
}
