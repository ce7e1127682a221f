package align

import (
	"context"

	"topeology/internal/pmbec"
)

// PortableScorer aligns sequences directly against the substitution matrix.
type PortableScorer struct {
	matrix  *pmbec.Matrix
	gap     int
	workers int
}

// NewPortableScorer returns a scorer over matrix. workers bounds ScoreBatch
// fan-out; 0 uses GOMAXPROCS.
func NewPortableScorer(matrix *pmbec.Matrix, workers int) *PortableScorer {
	return &PortableScorer{matrix: matrix, gap: matrix.GapPenalty(), workers: workers}
}

// Backend implements Scorer.
func (s *PortableScorer) Backend() string { return BackendPortable }

// RawScore returns the local-alignment score of the trimmed sequences in
// matrix units.
func (s *PortableScorer) RawScore(a, b string) (int, error) {
	ta, err := Prepare(a)
	if err != nil {
		return 0, err
	}
	tb, err := Prepare(b)
	if err != nil {
		return 0, err
	}
	return s.localAlign(ta, tb), nil
}

// Score implements Scorer.
func (s *PortableScorer) Score(a, b string) (float64, error) {
	raw, err := s.RawScore(a, b)
	if err != nil {
		return 0, err
	}
	return normalize(raw), nil
}

// ScoreBatch implements Scorer. Every pair is validated before any is scored.
func (s *PortableScorer) ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	trimmed, err := preparePairs(pairs)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(trimmed))
	err = forEachIndex(ctx, len(trimmed), s.workers, func(i int) {
		scores[i] = normalize(s.localAlign(trimmed[i].A, trimmed[i].B))
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// localAlign is Smith-Waterman with a zero floor and a linear gap cost.
// Both inputs are already validated.
func (s *PortableScorer) localAlign(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		cur[0] = 0
		for j := 1; j <= len(b); j++ {
			sub, _ := s.matrix.Score(a[i-1], b[j-1])
			h := prev[j-1] + sub
			if up := prev[j] - s.gap; up > h {
				h = up
			}
			if left := cur[j-1] - s.gap; left > h {
				h = left
			}
			if h < 0 {
				h = 0
			}
			cur[j] = h
			if h > best {
				best = h
			}
		}
		prev, cur = cur, prev
	}
	return best
}
