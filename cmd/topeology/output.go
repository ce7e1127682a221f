package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"topeology/internal/services"
)

const (
	formatAuto  = "auto"
	formatCSV   = "csv"
	formatTable = "table"
	formatJSON  = "json"
)

const formatUsage = "Output format: auto, csv, table, or json (auto renders a table on a terminal and CSV otherwise)"

// resolveFormat validates value and resolves auto against w.
func resolveFormat(value string, w io.Writer) (string, error) {
	format := strings.ToLower(strings.TrimSpace(value))
	switch format {
	case "", formatAuto:
		if isTerminal(w) {
			return formatTable, nil
		}
		return formatCSV, nil
	case formatCSV, formatTable, formatJSON:
		return format, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "cli", "format",
			fmt.Sprintf("unsupported output format %q (want auto, csv, table, or json)", value), nil)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeRows renders headers and rows as CSV or a table.
func writeRows(w io.Writer, format string, headers []string, rows [][]string, aligns []columnAlignment) error {
	if format == formatTable {
		_, err := fmt.Fprintln(w, renderTable(headers, rows, aligns))
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
