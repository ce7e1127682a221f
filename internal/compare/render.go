package compare

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Columns lists the output columns for records: sample, epitope,
// iedb_epitope, score, then score_wt, hla and organism when present.
func Columns(records []Record, includeWildtype bool) []string {
	cols := []string{"sample", "epitope", "iedb_epitope", "score"}
	if includeWildtype {
		cols = append(cols, "score_wt")
	}
	var hla, organism bool
	for _, r := range records {
		hla = hla || r.HLA != ""
		organism = organism || r.Organism != ""
	}
	if hla {
		cols = append(cols, "hla")
	}
	if organism {
		cols = append(cols, "organism")
	}
	return cols
}

// FormatScore renders a score with two decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (r Record) values(cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		switch col {
		case "sample":
			out[i] = r.SampleID
		case "epitope":
			out[i] = r.Epitope
		case "iedb_epitope":
			out[i] = r.IEDBEpitope
		case "score":
			out[i] = FormatScore(r.Score)
		case "score_wt":
			if r.ScoreWT != nil {
				out[i] = FormatScore(*r.ScoreWT)
			}
		case "hla":
			out[i] = r.HLA
		case "organism":
			out[i] = r.Organism
		}
	}
	return out
}

// WriteCSV renders records as a comma separated table with a header row.
func WriteCSV(w io.Writer, records []Record, includeWildtype bool) error {
	cols := Columns(records, includeWildtype)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.values(cols)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable renders records as a rounded terminal table.
func WriteTable(w io.Writer, records []Record, includeWildtype bool) error {
	cols := Columns(records, includeWildtype)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col
		align := text.AlignLeft
		if col == "score" || col == "score_wt" {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	for _, r := range records {
		vals := r.values(cols)
		row := make(table.Row, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs(configs)

	if _, err := io.WriteString(w, tw.Render()+"\n"); err != nil {
		return err
	}
	return nil
}

// WriteJSON renders records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
