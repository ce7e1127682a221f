package main

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"topeology/internal/compare"
	"topeology/internal/config"
	"topeology/internal/fileutil"
	"topeology/internal/services"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		count      int
		outputPath string
		lengths    []int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write random candidate epitopes for benchmarking",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return services.Wrap(services.ErrConfiguration, "cli", "generate", "--length must be positive", nil)
			}
			if strings.TrimSpace(outputPath) == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "generate", "--output is required", nil)
			}
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("epitope-lengths") {
				lengths = cfg.Comparison.EpitopeLengths
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}

			candidates, err := compare.GenerateCandidates(rand.New(rand.NewSource(seed)), count, config.NormalizeLengths(lengths))
			if err != nil {
				return err
			}
			err = fileutil.WriteFileAtomic(outputPath, 0o644, func(w io.Writer) error {
				return compare.WriteCandidates(w, candidates)
			})
			if err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d candidates to %s\n", len(candidates), outputPath)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "length", "n", 0, "Number of candidates to generate")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination CSV file")
	cmd.Flags().IntSliceVar(&lengths, "epitope-lengths", config.DefaultEpitopeLengths(), "Epitope lengths to draw from")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (defaults to the current time)")

	return cmd
}
