package compare

import (
	"context"
	"fmt"
	"log/slog"

	"topeology/internal/align"
	"topeology/internal/config"
	"topeology/internal/iedb"
	"topeology/internal/logging"
	"topeology/internal/services"
)

// Record is the score of one (candidate, reference) pair. ScoreWT is set
// only for wildtype comparisons.
type Record struct {
	SampleID    string   `json:"sample"`
	Epitope     string   `json:"epitope"`
	Wildtype    string   `json:"epitope_wt,omitempty"`
	IEDBEpitope string   `json:"iedb_epitope"`
	Score       float64  `json:"score"`
	ScoreWT     *float64 `json:"score_wt,omitempty"`
	HLA         string   `json:"hla,omitempty"`
	Organism    string   `json:"organism,omitempty"`
}

// Options controls a comparison run.
type Options struct {
	// AllowedLengths restricts candidate lengths; nil means no restriction.
	AllowedLengths  []int
	IncludeWildtype bool
	// SkipInvalid drops candidates with invalid or mismatched sequences
	// instead of failing the run.
	SkipInvalid bool
}

// OptionsFromConfig reads comparison settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AllowedLengths:  append([]int(nil), cfg.Comparison.EpitopeLengths...),
		IncludeWildtype: cfg.IncludeWildtype(),
		SkipInvalid:     cfg.Comparison.SkipInvalid,
	}
}

// Pipeline scores candidates against a reference set.
type Pipeline struct {
	Scorer align.Scorer
	Logger *slog.Logger
}

// NewPipeline returns a pipeline using scorer.
func NewPipeline(scorer align.Scorer, logger *slog.Logger) *Pipeline {
	return &Pipeline{Scorer: scorer, Logger: logger}
}

// Compare joins candidates to refs on length, one record per pair, ordered by
// candidate then reference.
func (p *Pipeline) Compare(ctx context.Context, candidates []Candidate, refs []iedb.ReferenceEpitope, opts Options) ([]Record, error) {
	if p.Scorer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "compare", "run", "no scorer configured", nil)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(p.Logger, "compare"))

	var allowed map[int]struct{}
	if opts.AllowedLengths != nil {
		allowed = make(map[int]struct{}, len(opts.AllowedLengths))
		for _, l := range opts.AllowedLengths {
			allowed[l] = struct{}{}
		}
	}

	buckets := make(map[int][]iedb.ReferenceEpitope)
	for _, ref := range refs {
		buckets[ref.Length] = append(buckets[ref.Length], ref)
	}

	var (
		records []Record
		mutant  []align.Pair
		wild    []align.Pair
		skipped int
	)
	for _, c := range candidates {
		if allowed != nil {
			if _, ok := allowed[c.Length()]; !ok {
				continue
			}
		}
		if err := validateCandidate(c, opts.IncludeWildtype); err != nil {
			if opts.SkipInvalid && services.Skippable(err) {
				skipped++
				logging.WarnWithContext(logger, "skipping candidate", "candidate_skipped",
					logging.String(logging.FieldSample, c.SampleID),
					logging.String("epitope", c.Epitope),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "fix or remove the candidate row"),
					logging.String(logging.FieldImpact, "candidate excluded from results"),
				)
				continue
			}
			return nil, err
		}
		for _, ref := range buckets[c.Length()] {
			records = append(records, Record{
				SampleID:    c.SampleID,
				Epitope:     c.Epitope,
				Wildtype:    wildtypeOf(c, opts.IncludeWildtype),
				IEDBEpitope: ref.Sequence,
				HLA:         ref.HLA,
				Organism:    ref.Organism,
			})
			mutant = append(mutant, align.Pair{A: c.Epitope, B: ref.Sequence})
			if opts.IncludeWildtype {
				wild = append(wild, align.Pair{A: c.Wildtype, B: ref.Sequence})
			}
		}
	}

	logger.Info("scoring joined pairs",
		logging.Int("candidates", len(candidates)),
		logging.Int("references", len(refs)),
		logging.Int("pairs", len(mutant)),
		logging.Int("skipped", skipped),
		logging.String("backend", p.Scorer.Backend()),
	)

	scores, err := p.Scorer.ScoreBatch(ctx, mutant)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	for i := range records {
		records[i].Score = scores[i]
	}

	if opts.IncludeWildtype {
		wtScores, err := p.Scorer.ScoreBatch(ctx, wild)
		if err != nil {
			return nil, fmt.Errorf("score wildtypes: %w", err)
		}
		for i := range records {
			v := wtScores[i]
			records[i].ScoreWT = &v
		}
	}
	return records, nil
}

func validateCandidate(c Candidate, includeWildtype bool) error {
	if _, err := align.Prepare(c.Epitope); err != nil {
		return fmt.Errorf("sample %s: %w", c.SampleID, err)
	}
	if !includeWildtype {
		return nil
	}
	if len(c.Wildtype) != len(c.Epitope) {
		return services.Wrap(services.ErrLengthMismatch, "compare", "wildtype",
			fmt.Sprintf("sample %s: epitope %q has length %d but epitope_wt %q has length %d",
				c.SampleID, c.Epitope, len(c.Epitope), c.Wildtype, len(c.Wildtype)), nil)
	}
	if _, err := align.Prepare(c.Wildtype); err != nil {
		return fmt.Errorf("sample %s wildtype: %w", c.SampleID, err)
	}
	return nil
}

func wildtypeOf(c Candidate, includeWildtype bool) string {
	if includeWildtype {
		return c.Wildtype
	}
	return ""
}
