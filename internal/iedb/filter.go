package iedb

import (
	"strings"

	"golang.org/x/text/cases"

	"topeology/internal/config"
)

// Filter drops rows whose Column contains On.
type Filter struct {
	On            string
	Column        string
	CaseSensitive bool
}

// SelfFilter removes epitopes of human origin so the reference set never
// matches a patient's own proteome.
var SelfFilter = Filter{On: "homo sap", Column: ColumnSourceOrganism}

// FiltersFromConfig converts configured exclusion filters.
func FiltersFromConfig(filters []config.Filter) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		out = append(out, Filter{On: f.On, Column: f.Column, CaseSensitive: f.CaseSensitive})
	}
	return out
}

// Excludes reports whether row should be dropped.
func (f Filter) Excludes(row Row) bool {
	value := row.Get(f.Column)
	if f.CaseSensitive {
		return strings.Contains(value, f.On)
	}
	return containsFold(value, f.On)
}

// Apply returns the rows the filter keeps. The input slice is not modified.
func (f Filter) Apply(rows []Row) []Row {
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !f.Excludes(row) {
			kept = append(kept, row)
		}
	}
	return kept
}

func containsFold(s, substr string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}
