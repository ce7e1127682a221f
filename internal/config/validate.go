package config

import (
	"errors"
	"fmt"

	"topeology/internal/services"
)

// MinEpitopeLength is the shortest sequence the flanking-residue trim accepts.
const MinEpitopeLength = 3

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if err := ValidatePositiveRatio(c.Curation.PositiveRatio); err != nil {
		errs = append(errs, err)
	}
	for i, f := range c.Curation.Filters {
		if f.On == "" || f.Column == "" {
			errs = append(errs, configError("curation.filters[%d]: both on and column are required", i))
		}
	}
	for _, l := range c.Comparison.EpitopeLengths {
		if l < MinEpitopeLength {
			errs = append(errs, configError("comparison.epitope_lengths: %d is shorter than %d", l, MinEpitopeLength))
		}
	}
	if err := ValidateMode(c.Comparison.Mode); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateBackend(c.Scoring.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Scoring.Workers < 0 {
		errs = append(errs, configError("scoring.workers must be >= 0"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, configError("logging.level: unsupported value %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// ValidatePositiveRatio rejects thresholds outside [0, 1].
func ValidatePositiveRatio(ratio float64) error {
	if ratio < 0 || ratio > 1 || ratio != ratio {
		return configError("curation.positive_ratio must be within [0, 1], got %v", ratio)
	}
	return nil
}

// ValidateMode rejects unknown comparison modes.
func ValidateMode(mode string) error {
	switch mode {
	case ModeMutant, ModeWildtype:
		return nil
	default:
		return configError("comparison.mode: unsupported value %q (want %s or %s)", mode, ModeMutant, ModeWildtype)
	}
}

// ValidateBackend rejects unknown scoring backends.
func ValidateBackend(backend string) error {
	switch backend {
	case BackendAuto, BackendPortable, BackendNative:
		return nil
	default:
		return configError("scoring.backend: unsupported value %q (want %s, %s, or %s)",
			backend, BackendAuto, BackendPortable, BackendNative)
	}
}

func configError(format string, args ...any) error {
	return services.Wrap(services.ErrConfiguration, "config", "validate", fmt.Sprintf(format, args...), nil)
}
