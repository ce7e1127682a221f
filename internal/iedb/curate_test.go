package iedb_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"topeology/internal/iedb"
	"topeology/internal/services"
	"topeology/internal/testsupport"
)

func loadRows(t *testing.T, rows ...testsupport.IEDBRow) []iedb.Row {
	t.Helper()
	parsed, err := iedb.ReadRows(strings.NewReader(testsupport.IEDBExport(rows...)))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	return parsed
}

func repeat(n int, row testsupport.IEDBRow) []testsupport.IEDBRow {
	out := make([]testsupport.IEDBRow, n)
	for i := range out {
		out[i] = row
	}
	return out
}

func sequences(epitopes []iedb.ReferenceEpitope) []string {
	out := make([]string, 0, len(epitopes))
	for _, ep := range epitopes {
		out = append(out, ep.Sequence)
	}
	return out
}

func TestCuratePositiveRatioBoundary(t *testing.T) {
	var raw []testsupport.IEDBRow
	// 3 of 5 positive: exactly 0.60.
	raw = append(raw, repeat(3, testsupport.HumanPositive("GILGFVFTL", ""))...)
	raw = append(raw, repeat(2, testsupport.HumanNegative("GILGFVFTL", ""))...)
	// 59 of 100 positive.
	raw = append(raw, repeat(59, testsupport.HumanPositive("NLVPMVATV", ""))...)
	raw = append(raw, repeat(41, testsupport.HumanNegative("NLVPMVATV", ""))...)

	epitopes, err := iedb.Curate(loadRows(t, raw...), iedb.DefaultCurateOptions())
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if got := sequences(epitopes); !reflect.DeepEqual(got, []string{"GILGFVFTL"}) {
		t.Fatalf("unexpected epitopes %v", got)
	}
	if epitopes[0].PositiveRatio != 0.6 || epitopes[0].Length != 9 {
		t.Fatalf("unexpected epitope %+v", epitopes[0])
	}
}

func TestCurateHostAndSelfExclusion(t *testing.T) {
	mouse := testsupport.HumanPositive("SIINFEKL", "")
	mouse.Host = "Mus musculus"
	lowerHost := testsupport.HumanPositive("KLGGALQAK", "")
	lowerHost.Host = "homo sapiens (human)"
	self := testsupport.HumanPositive("YLQPRTFLL", "")
	self.Source = "Homo sapiens"

	epitopes, err := iedb.Curate(loadRows(t, mouse, lowerHost, self), iedb.DefaultCurateOptions())
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if got := sequences(epitopes); !reflect.DeepEqual(got, []string{"KLGGALQAK"}) {
		t.Fatalf("unexpected epitopes %v", got)
	}
}

func TestCurateFilterCountsAreMonotonic(t *testing.T) {
	self := testsupport.HumanPositive("YLQPRTFLL", "")
	self.Source = "Homo sapiens"
	hiv := testsupport.HumanPositive("SLYNTVATL", "")
	hiv.Source = "Human immunodeficiency virus 1"
	rows := loadRows(t,
		testsupport.HumanPositive("GILGFVFTL", ""),
		testsupport.HumanPositive("NLVPMVATV", ""),
		self,
		hiv,
	)

	filters := []iedb.Filter{
		{On: "immunodeficiency", Column: iedb.ColumnSourceOrganism},
		{On: "NOTHING", Column: "Missing Column", CaseSensitive: true},
	}
	original := append([]iedb.Filter(nil), filters...)

	opts := iedb.DefaultCurateOptions()
	opts.Filters = filters
	epitopes, report, err := iedb.CurateWithReport(rows, opts)
	if err != nil {
		t.Fatalf("CurateWithReport: %v", err)
	}
	if !reflect.DeepEqual(filters, original) {
		t.Fatalf("caller filters mutated: %+v", filters)
	}
	if len(report.FilterCounts) != 3 {
		t.Fatalf("expected self filter plus 2 caller filters, got %+v", report.FilterCounts)
	}
	if report.FilterCounts[0].On != iedb.SelfFilter.On || report.FilterCounts[0].Column != iedb.ColumnSourceOrganism {
		t.Fatalf("self filter must run first, got %+v", report.FilterCounts[0])
	}
	prev := report.HumanHost
	for _, fc := range report.FilterCounts {
		if fc.Before != prev || fc.After > fc.Before {
			t.Fatalf("non-monotonic filter counts %+v (prev %d)", report.FilterCounts, prev)
		}
		prev = fc.After
	}
	want := []int{4, 3, 2}
	for i, fc := range report.FilterCounts {
		if fc.Before != want[i] {
			t.Fatalf("filter %d before = %d, want %d", i, fc.Before, want[i])
		}
	}
	if got := sequences(epitopes); !reflect.DeepEqual(got, []string{"GILGFVFTL", "NLVPMVATV"}) {
		t.Fatalf("unexpected epitopes %v", got)
	}
}

func TestCurateLengthAndAlphabetRestrictions(t *testing.T) {
	rows := loadRows(t,
		testsupport.HumanPositive("GILGFVFTL", ""),
		testsupport.HumanPositive("SIINFEKL", ""),
		testsupport.HumanPositive("GILGFVFBL", ""),
		testsupport.HumanPositive("GILGFVFXL", ""),
		testsupport.HumanPositive("gilgfvftl", ""),
		testsupport.HumanPositive("GILGFVF L", ""),
	)

	opts := iedb.DefaultCurateOptions()
	opts.AllowedLengths = []int{9}
	epitopes, report, err := iedb.CurateWithReport(rows, opts)
	if err != nil {
		t.Fatalf("CurateWithReport: %v", err)
	}
	if got := sequences(epitopes); !reflect.DeepEqual(got, []string{"GILGFVFTL"}) {
		t.Fatalf("unexpected epitopes %v", got)
	}
	if report.LengthMatched != 5 || report.ValidSequence != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	opts.AllowedLengths = nil
	epitopes, err = iedb.Curate(rows, opts)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if got := sequences(epitopes); !reflect.DeepEqual(got, []string{"SIINFEKL", "GILGFVFTL"}) {
		t.Fatalf("nil lengths must not restrict, got %v", got)
	}
}

func TestCurateIncludeHLAKeepsPositiveDetailRows(t *testing.T) {
	rows := loadRows(t,
		testsupport.HumanPositive("GILGFVFTL", "HLA-A*02:01"),
		testsupport.HumanPositive("GILGFVFTL", "HLA-A*02:01"),
		testsupport.HumanPositive("GILGFVFTL", "HLA-A2"),
		testsupport.HumanNegative("GILGFVFTL", "HLA-B*07:02"),
		testsupport.HumanPositive("GILGFVFTL", "HLA-DRB1*01:01"),
	)

	opts := iedb.DefaultCurateOptions()
	opts.IncludeHLA = true
	epitopes, err := iedb.Curate(rows, opts)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	want := []iedb.ReferenceEpitope{
		{Sequence: "GILGFVFTL", Length: 9, PositiveRatio: 0.8, HLA: ""},
		{Sequence: "GILGFVFTL", Length: 9, PositiveRatio: 0.8, HLA: "A0201"},
	}
	if !reflect.DeepEqual(epitopes, want) {
		t.Fatalf("unexpected epitopes:\n got %+v\nwant %+v", epitopes, want)
	}
}

func TestCurateIncludeOrganism(t *testing.T) {
	flu := testsupport.HumanPositive("GILGFVFTL", "")
	ebv := testsupport.HumanPositive("GILGFVFTL", "")
	ebv.Source = "Epstein-Barr virus"

	opts := iedb.DefaultCurateOptions()
	opts.IncludeOrganism = true
	epitopes, err := iedb.Curate(loadRows(t, flu, ebv, flu), opts)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if len(epitopes) != 2 || epitopes[0].Organism != "Epstein-Barr virus" || epitopes[1].Organism != "Influenza A virus" {
		t.Fatalf("unexpected epitopes %+v", epitopes)
	}
}

func TestCurateIsIdempotentAndDuplicateFree(t *testing.T) {
	var raw []testsupport.IEDBRow
	raw = append(raw, repeat(4, testsupport.HumanPositive("GILGFVFTL", "HLA-A*02:01"))...)
	raw = append(raw, repeat(2, testsupport.HumanPositive("NLVPMVATV", "HLA-A*02:01"))...)
	raw = append(raw, testsupport.HumanNegative("NLVPMVATV", "HLA-A*02:01"))
	rows := loadRows(t, raw...)

	opts := iedb.DefaultCurateOptions()
	opts.IncludeHLA = true
	first, err := iedb.Curate(rows, opts)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	second, err := iedb.Curate(rows, opts)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("curation not deterministic:\n%+v\n%+v", first, second)
	}
	seen := make(map[iedb.ReferenceEpitope]bool)
	for _, ep := range first {
		if seen[ep] {
			t.Fatalf("duplicate epitope %+v", ep)
		}
		seen[ep] = true
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 epitopes, got %+v", first)
	}
}

func TestCurateZeroThresholdDropsGroupsWithoutPositives(t *testing.T) {
	rows := loadRows(t,
		testsupport.HumanNegative("GILGFVFTL", ""),
		testsupport.HumanPositive("NLVPMVATV", ""),
	)
	opts := iedb.DefaultCurateOptions()
	opts.PositiveRatio = 0
	epitopes, report, err := iedb.CurateWithReport(rows, opts)
	if err != nil {
		t.Fatalf("CurateWithReport: %v", err)
	}
	if report.RetainedGroups != 2 {
		t.Fatalf("expected both groups to pass a zero threshold, got %+v", report)
	}
	if got := sequences(epitopes); !reflect.DeepEqual(got, []string{"NLVPMVATV"}) {
		t.Fatalf("unexpected epitopes %v", got)
	}
}

func TestCurateRejectsThresholdOutsideUnitInterval(t *testing.T) {
	for _, ratio := range []float64{-0.1, 1.01} {
		opts := iedb.DefaultCurateOptions()
		opts.PositiveRatio = ratio
		if _, err := iedb.Curate(nil, opts); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("ratio %v: expected ErrConfiguration, got %v", ratio, err)
		}
	}
}

func TestCurateHigherThresholdIsSubset(t *testing.T) {
	var raw []testsupport.IEDBRow
	raw = append(raw, repeat(1, testsupport.HumanPositive("GILGFVFTL", ""))...)
	raw = append(raw, repeat(1, testsupport.HumanNegative("GILGFVFTL", ""))...)
	raw = append(raw, repeat(3, testsupport.HumanPositive("NLVPMVATV", ""))...)
	raw = append(raw, repeat(1, testsupport.HumanNegative("NLVPMVATV", ""))...)
	raw = append(raw, testsupport.HumanPositive("KLGGALQAK", ""))
	rows := loadRows(t, raw...)

	prev := -1
	for _, ratio := range []float64{0, 0.5, 0.75, 0.9, 1} {
		opts := iedb.DefaultCurateOptions()
		opts.PositiveRatio = ratio
		epitopes, err := iedb.Curate(rows, opts)
		if err != nil {
			t.Fatalf("Curate(%v): %v", ratio, err)
		}
		if prev >= 0 && len(epitopes) > prev {
			t.Fatalf("threshold %v kept %d epitopes, more than the previous %d", ratio, len(epitopes), prev)
		}
		prev = len(epitopes)
	}
	if prev != 1 {
		t.Fatalf("expected only the all-positive group at ratio 1, got %d", prev)
	}
}
