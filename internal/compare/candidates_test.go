package compare_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"topeology/internal/compare"
	"topeology/internal/services"
	"topeology/internal/testsupport"
)

func TestReadCandidates(t *testing.T) {
	cases := map[string]string{
		"sample column": "sample,epitope,epitope_wt\n001,AAALPGKCGV,AAALPGKCGA\n002, AAFFFLVVL ,AAFFFLVVM\n",
		"sample_id tsv": "sample_id\tepitope\tepitope_wt\n001\tAAALPGKCGV\tAAALPGKCGA\n002\tAAFFFLVVL\tAAFFFLVVM\n",
	}
	want := []compare.Candidate{
		{SampleID: "001", Epitope: "AAALPGKCGV", Wildtype: "AAALPGKCGA"},
		{SampleID: "002", Epitope: "AAFFFLVVL", Wildtype: "AAFFFLVVM"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := compare.ReadCandidates(strings.NewReader(input))
			if err != nil {
				t.Fatalf("ReadCandidates: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestReadCandidatesWithoutWildtype(t *testing.T) {
	got, err := compare.ReadCandidates(strings.NewReader("epitope,sample\nAAALPGKCGV,001\n\n"))
	if err != nil {
		t.Fatalf("ReadCandidates: %v", err)
	}
	if len(got) != 1 || got[0].SampleID != "001" || got[0].Wildtype != "" || got[0].Length() != 10 {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

func TestReadCandidatesMissingColumns(t *testing.T) {
	for _, input := range []string{"", "sample\n001\n", "epitope\nAAALPGKCGV\n"} {
		if _, err := compare.ReadCandidates(strings.NewReader(input)); !errors.Is(err, services.ErrDataUnavailable) {
			t.Fatalf("input %q: expected ErrDataUnavailable, got %v", input, err)
		}
	}
	if _, err := compare.LoadCandidates(filepath.Join(t.TempDir(), "absent.csv")); !errors.Is(err, services.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestWriteCandidatesRoundTrip(t *testing.T) {
	candidates := []compare.Candidate{
		{SampleID: "001", Epitope: "AAALPGKCGV", Wildtype: "AAALPGKCGA"},
		{SampleID: "002", Epitope: "AAFFFLVVL"},
	}
	var buf bytes.Buffer
	if err := compare.WriteCandidates(&buf, candidates); err != nil {
		t.Fatalf("WriteCandidates: %v", err)
	}
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "in.csv"), buf.String())
	got, err := compare.LoadCandidates(path)
	if err != nil {
		t.Fatalf("LoadCandidates: %v", err)
	}
	if !reflect.DeepEqual(got, candidates) {
		t.Fatalf("got %+v, want %+v", got, candidates)
	}
}
