package compare_test

import (
	"math/rand"
	"reflect"
	"testing"

	"topeology/internal/compare"
	"topeology/internal/pmbec"
)

func TestGenerateCandidates(t *testing.T) {
	lengths := []int{8, 9, 10, 11}
	got, err := compare.GenerateCandidates(rand.New(rand.NewSource(1)), 50, lengths)
	if err != nil {
		t.Fatalf("GenerateCandidates: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 candidates, got %d", len(got))
	}
	for _, c := range got {
		if c.Length() < 8 || c.Length() > 11 || len(c.SampleID) != 3 {
			t.Fatalf("unexpected candidate %+v", c)
		}
		for i := 0; i < len(c.Epitope); i++ {
			if !pmbec.IsStandard(c.Epitope[i]) {
				t.Fatalf("non-standard residue in %q", c.Epitope)
			}
		}
	}

	again, _ := compare.GenerateCandidates(rand.New(rand.NewSource(1)), 50, lengths)
	if !reflect.DeepEqual(got, again) {
		t.Fatal("same seed must generate the same candidates")
	}

	if _, err := compare.GenerateCandidates(rand.New(rand.NewSource(1)), 1, nil); err == nil {
		t.Fatal("expected error without lengths")
	}
}
