package align

import (
	"context"
	"fmt"

	"topeology/internal/pmbec"
	"topeology/internal/services"
)

// Backend names reported by Scorer.Backend.
const (
	BackendPortable = "portable"
	BackendNative   = "native"
)

// Pair is one (candidate, reference) sequence pair.
type Pair struct {
	A string
	B string
}

// Scorer computes normalized local-alignment scores.
type Scorer interface {
	Score(a, b string) (float64, error)
	// ScoreBatch scores pairs in input order.
	ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error)
	Backend() string
}

// Trim drops the first two residues and the last one.
func Trim(seq string) (string, error) {
	if len(seq) < 3 {
		return "", services.Wrap(services.ErrInvalidSequence, "align", "trim",
			fmt.Sprintf("sequence %q is shorter than 3 residues", seq), nil)
	}
	return seq[2 : len(seq)-1], nil
}

// Prepare validates seq against the 24-letter alphabet and trims it.
func Prepare(seq string) (string, error) {
	for i := 0; i < len(seq); i++ {
		if _, ok := pmbec.Index(seq[i]); !ok {
			return "", services.Wrap(services.ErrInvalidSequence, "align", "validate",
				fmt.Sprintf("sequence %q has residue %q outside %s", seq, seq[i], pmbec.Alphabet), nil)
		}
	}
	return Trim(seq)
}

func preparePairs(pairs []Pair) ([]Pair, error) {
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		a, err := Prepare(p.A)
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		b, err := Prepare(p.B)
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		out[i] = Pair{A: a, B: b}
	}
	return out, nil
}

func normalize(raw int) float64 {
	return float64(raw) / pmbec.Scale
}
