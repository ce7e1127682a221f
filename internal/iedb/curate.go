package iedb

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"topeology/internal/config"
	"topeology/internal/logging"
	"topeology/internal/pmbec"
)

// DefaultPositiveRatio is the default share of positive assays a group needs.
const DefaultPositiveRatio = 0.6

const humanHost = "homo sap"

// ReferenceEpitope is one curated reference sequence. HLA and Organism are
// empty unless requested.
type ReferenceEpitope struct {
	Sequence      string  `json:"iedb_epitope"`
	Length        int     `json:"epitope_length"`
	PositiveRatio float64 `json:"positive_ratio"`
	HLA           string  `json:"hla,omitempty"`
	Organism      string  `json:"organism,omitempty"`
}

// CurateOptions controls reference set curation.
type CurateOptions struct {
	// AllowedLengths restricts sequence lengths; nil means no restriction.
	AllowedLengths  []int
	PositiveRatio   float64
	IncludeHLA      bool
	IncludeOrganism bool
	// Filters run after the self-exclusion filter, in order.
	Filters []Filter
	Logger  *slog.Logger
}

// DefaultCurateOptions returns options with the default threshold.
func DefaultCurateOptions() CurateOptions {
	return CurateOptions{PositiveRatio: DefaultPositiveRatio}
}

// OptionsFromConfig builds curation options from configuration.
func OptionsFromConfig(cfg *config.Config) CurateOptions {
	return CurateOptions{
		AllowedLengths:  append([]int(nil), cfg.Comparison.EpitopeLengths...),
		PositiveRatio:   cfg.Curation.PositiveRatio,
		IncludeHLA:      cfg.Curation.IncludeHLA,
		IncludeOrganism: cfg.Curation.IncludeOrganism,
		Filters:         FiltersFromConfig(cfg.Curation.Filters),
	}
}

// FilterCount records the row count around one filter application.
type FilterCount struct {
	On     string `json:"on"`
	Column string `json:"column"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// CurateReport summarizes how many rows survived each curation step.
type CurateReport struct {
	Input          int           `json:"input"`
	HumanHost      int           `json:"human_host"`
	FilterCounts   []FilterCount `json:"filters"`
	LengthMatched  int           `json:"length_matched"`
	ValidSequence  int           `json:"valid_sequence"`
	Groups         int           `json:"groups"`
	RetainedGroups int           `json:"retained_groups"`
	Epitopes       int           `json:"epitopes"`
}

type groupKey struct {
	sequence string
	length   int
}

type detailRow struct {
	key      groupKey
	positive bool
	hla      string
	organism string
}

// Curate builds the reference set. See CurateWithReport.
func Curate(rows []Row, opts CurateOptions) ([]ReferenceEpitope, error) {
	epitopes, _, err := CurateWithReport(rows, opts)
	return epitopes, err
}

// CurateWithReport builds the reference set and reports per-step counts.
// The result is sorted by length, sequence, HLA, then organism.
func CurateWithReport(rows []Row, opts CurateOptions) ([]ReferenceEpitope, CurateReport, error) {
	var report CurateReport
	if err := config.ValidatePositiveRatio(opts.PositiveRatio); err != nil {
		return nil, report, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "iedb")
	report.Input = len(rows)

	human := make([]Row, 0, len(rows))
	for _, row := range rows {
		if containsFold(row.Get(ColumnHostOrganism), humanHost) {
			human = append(human, row)
		}
	}
	report.HumanHost = len(human)
	logger.Debug("restricted to human hosts",
		logging.Int("before", report.Input),
		logging.Int("after", report.HumanHost),
	)

	filters := make([]Filter, 0, len(opts.Filters)+1)
	filters = append(filters, SelfFilter)
	filters = append(filters, opts.Filters...)

	current := human
	for _, f := range filters {
		before := len(current)
		current = f.Apply(current)
		report.FilterCounts = append(report.FilterCounts, FilterCount{
			On:     f.On,
			Column: f.Column,
			Before: before,
			After:  len(current),
		})
		logger.Info("applied reference filter",
			logging.String("on", f.On),
			logging.String("column", f.Column),
			logging.Int("before", before),
			logging.Int("after", len(current)),
		)
	}

	var allowed map[int]struct{}
	if opts.AllowedLengths != nil {
		allowed = make(map[int]struct{}, len(opts.AllowedLengths))
		for _, l := range opts.AllowedLengths {
			allowed[l] = struct{}{}
		}
	}

	details := make([]detailRow, 0, len(current))
	for _, row := range current {
		seq := row.Sequence()
		if allowed != nil {
			if _, ok := allowed[len(seq)]; !ok {
				continue
			}
		}
		report.LengthMatched++
		if !standardSequence(seq) {
			continue
		}
		d := detailRow{
			key:      groupKey{sequence: seq, length: len(seq)},
			positive: strings.HasPrefix(row.Get(ColumnQualitativeMeasure), "Positive"),
		}
		if opts.IncludeHLA {
			d.hla = compactIfClassI(row.Get(ColumnAllele))
		}
		if opts.IncludeOrganism {
			d.organism = row.Get(ColumnSourceOrganism)
		}
		details = append(details, d)
	}
	report.ValidSequence = len(details)

	type tally struct{ positive, total int }
	tallies := make(map[groupKey]*tally)
	for _, d := range details {
		t := tallies[d.key]
		if t == nil {
			t = &tally{}
			tallies[d.key] = t
		}
		t.total++
		if d.positive {
			t.positive++
		}
	}
	report.Groups = len(tallies)

	retained := make(map[groupKey]float64)
	for key, t := range tallies {
		ratio := float64(t.positive) / float64(t.total)
		if ratio >= opts.PositiveRatio {
			retained[key] = ratio
		}
	}
	report.RetainedGroups = len(retained)

	seen := make(map[ReferenceEpitope]struct{})
	epitopes := make([]ReferenceEpitope, 0, len(retained))
	for _, d := range details {
		ratio, ok := retained[d.key]
		if !ok || !d.positive {
			continue
		}
		ep := ReferenceEpitope{
			Sequence:      d.key.sequence,
			Length:        d.key.length,
			PositiveRatio: ratio,
			HLA:           d.hla,
			Organism:      d.organism,
		}
		if _, dup := seen[ep]; dup {
			continue
		}
		seen[ep] = struct{}{}
		epitopes = append(epitopes, ep)
	}
	SortEpitopes(epitopes)
	report.Epitopes = len(epitopes)

	logger.Info("curated reference epitopes",
		logging.Int("groups", report.Groups),
		logging.Int("retained_groups", report.RetainedGroups),
		logging.Int("epitopes", report.Epitopes),
		logging.Float64("positive_ratio", opts.PositiveRatio),
	)
	return epitopes, report, nil
}

// SortEpitopes orders epitopes by length, sequence, HLA, then organism.
func SortEpitopes(epitopes []ReferenceEpitope) {
	slices.SortFunc(epitopes, func(a, b ReferenceEpitope) int {
		return cmp.Or(
			cmp.Compare(a.Length, b.Length),
			cmp.Compare(a.Sequence, b.Sequence),
			cmp.Compare(a.HLA, b.HLA),
			cmp.Compare(a.Organism, b.Organism),
		)
	})
}

func standardSequence(seq string) bool {
	if seq == "" {
		return false
	}
	for i := 0; i < len(seq); i++ {
		if !pmbec.IsStandard(seq[i]) {
			return false
		}
	}
	return true
}

func compactIfClassI(raw string) string {
	if !IsClassIAllele(raw) {
		return ""
	}
	compact, err := CompactAllele(raw)
	if err != nil {
		return ""
	}
	return compact
}
