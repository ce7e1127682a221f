package testsupport

import (
	"strings"
)

// IEDBHeader lists the IEDB T-cell export columns the curator reads.
var IEDBHeader = []string{
	"Epitope Linear Sequence",
	"Epitope Source Organism Name",
	"Host Organism Name",
	"Qualitative Measure",
	"MHC Allele Name",
}

// IEDBRow is one assay line in an IEDB T-cell export.
type IEDBRow struct {
	Sequence string
	Source   string
	Host     string
	Measure  string
	Allele   string
}

// IEDBExport renders rows as an IEDB CSV export with a single header row.
func IEDBExport(rows ...IEDBRow) string {
	var b strings.Builder
	b.WriteString(strings.Join(quoteAll(IEDBHeader), ","))
	b.WriteByte('\n')
	for _, row := range rows {
		fields := []string{row.Sequence, row.Source, row.Host, row.Measure, row.Allele}
		b.WriteString(strings.Join(quoteAll(fields), ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// HumanPositive is a human-host positive assay from a viral source.
func HumanPositive(sequence, allele string) IEDBRow {
	return IEDBRow{
		Sequence: sequence,
		Source:   "Influenza A virus",
		Host:     "Homo sapiens",
		Measure:  "Positive",
		Allele:   allele,
	}
}

// HumanNegative is a human-host negative assay from a viral source.
func HumanNegative(sequence, allele string) IEDBRow {
	row := HumanPositive(sequence, allele)
	row.Measure = "Negative"
	return row
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return out
}
