package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"topeology/internal/pmbec"
)

type matrixView struct {
	Letters    string  `json:"letters"`
	GapPenalty int     `json:"gap_penalty"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Rows       [][]int `json:"rows"`
}

func newMatrixCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the PMBEC substitution matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
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
			matrix, err := ctx.loadMatrix(cfg, logger)
			if err != nil {
				return err
			}
			return writeMatrix(cmd, resolved, matrix)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatAuto, formatUsage)
	return cmd
}

func writeMatrix(cmd *cobra.Command, format string, matrix *pmbec.Matrix) error {
	out := cmd.OutOrStdout()
	if format == formatJSON {
		return writeJSON(out, matrixView{
			Letters:    matrix.Letters(),
			GapPenalty: matrix.GapPenalty(),
			Min:        matrix.Min(),
			Max:        matrix.Max(),
			Rows:       matrix.Rows(),
		})
	}

	letters := matrix.Letters()
	headers := make([]string, 0, len(letters)+1)
	aligns := make([]columnAlignment, 0, len(letters)+1)
	headers = append(headers, "")
	aligns = append(aligns, alignLeft)
	for i := 0; i < len(letters); i++ {
		headers = append(headers, letters[i:i+1])
		aligns = append(aligns, alignRight)
	}
	rows := make([][]string, 0, len(letters))
	for i, values := range matrix.Rows() {
		row := make([]string, 0, len(values)+1)
		row = append(row, letters[i:i+1])
		for _, v := range values {
			row = append(row, strconv.Itoa(v))
		}
		rows = append(rows, row)
	}

	if format == formatTable {
		summary := fmt.Sprintf("gap %d  min %d  max %d", matrix.GapPenalty(), matrix.Min(), matrix.Max())
		_, err := fmt.Fprintln(out, renderTable(headers, rows, aligns, summary))
		return err
	}
	return writeRows(out, format, headers, rows, aligns)
}
