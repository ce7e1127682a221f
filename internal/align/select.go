package align

import (
	"log/slog"

	"topeology/internal/config"
	"topeology/internal/logging"
	"topeology/internal/pmbec"
)

// Options configures backend selection.
type Options struct {
	Backend string
	Workers int
	Logger  *slog.Logger
}

// OptionsFromConfig reads scoring settings from cfg.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Backend: cfg.Scoring.Backend,
		Workers: cfg.Scoring.Workers,
		Logger:  logger,
	}
}

// Select builds the scorer for opts.Backend. For native and auto, the engine
// is probed once with Init; when it is missing or the probe fails a warning is
// logged and the portable scorer is returned instead.
func Select(matrix *pmbec.Matrix, engine Engine, opts Options) (Scorer, error) {
	if err := config.ValidateBackend(opts.Backend); err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "align")

	if opts.Backend == config.BackendPortable {
		logger.Debug("using portable scorer")
		return NewPortableScorer(matrix, opts.Workers), nil
	}

	native, err := NewNativeScorer(matrix, engine)
	if err != nil {
		logging.WarnWithContext(logger, "native alignment engine unavailable; using portable scorer", "backend_fallback",
			logging.String("requested_backend", opts.Backend),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the alignment engine configuration"),
			logging.String(logging.FieldImpact, "scores are computed by the portable backend"),
		)
		return NewPortableScorer(matrix, opts.Workers), nil
	}
	logger.Debug("using native scorer",
		logging.Int("gap_penalty", matrix.GapPenalty()),
	)
	return native, nil
}

