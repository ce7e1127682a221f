package align

import (
	"context"
	"fmt"

	"topeology/internal/pmbec"
	"topeology/internal/services"
)

// Engine is a flattened-matrix local aligner. Init receives the gap penalty
// and the 576 matrix cells in row-major canonical order; scores are in matrix
// units.
type Engine interface {
	Init(gapPenalty int, flatMatrix []int) error
	Score(a, b string) (int, error)
	ScoreBatch(a, b []string) ([]int, error)
}

// NativeScorer delegates alignment to an Engine.
type NativeScorer struct {
	engine Engine
}

// NewNativeScorer initializes engine with matrix. An initialization failure
// is reported as ErrBackendUnavailable.
func NewNativeScorer(matrix *pmbec.Matrix, engine Engine) (*NativeScorer, error) {
	if engine == nil {
		return nil, services.Wrap(services.ErrBackendUnavailable, "align", "init engine", "no engine configured", nil)
	}
	if err := engine.Init(matrix.GapPenalty(), matrix.Flatten()); err != nil {
		return nil, services.Wrap(services.ErrBackendUnavailable, "align", "init engine", "engine rejected matrix", err)
	}
	return &NativeScorer{engine: engine}, nil
}

// Backend implements Scorer.
func (s *NativeScorer) Backend() string { return BackendNative }

// Score implements Scorer.
func (s *NativeScorer) Score(a, b string) (float64, error) {
	ta, err := Prepare(a)
	if err != nil {
		return 0, err
	}
	tb, err := Prepare(b)
	if err != nil {
		return 0, err
	}
	raw, err := s.engine.Score(ta, tb)
	if err != nil {
		return 0, fmt.Errorf("engine score: %w", err)
	}
	return normalize(raw), nil
}

// ScoreBatch implements Scorer with a single engine batch call.
func (s *NativeScorer) ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	trimmed, err := preparePairs(pairs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	as := make([]string, len(trimmed))
	bs := make([]string, len(trimmed))
	for i, p := range trimmed {
		as[i], bs[i] = p.A, p.B
	}
	raw, err := s.engine.ScoreBatch(as, bs)
	if err != nil {
		return nil, fmt.Errorf("engine batch: %w", err)
	}
	if len(raw) != len(trimmed) {
		return nil, services.Wrap(services.ErrBackendUnavailable, "align", "score batch",
			fmt.Sprintf("engine returned %d scores for %d pairs", len(raw), len(trimmed)), nil)
	}
	scores := make([]float64, len(raw))
	for i, v := range raw {
		scores[i] = normalize(v)
	}
	return scores, nil
}
