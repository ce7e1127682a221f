package main

import (
	"errors"

	"github.com/spf13/cobra"

	"topeology/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify reference data, directories, and the result store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, err := resolveFormat(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			if resolved == formatJSON {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.Passed {
						status = "fail"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				if err := writeRows(out, resolved, []string{"check", "status", "detail"}, rows, nil); err != nil {
					return err
				}
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatAuto, formatUsage)
	return cmd
}
