package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDataUnavailable    = errors.New("data unavailable")
	ErrInvalidSequence    = errors.New("invalid sequence")
	ErrLengthMismatch     = errors.New("length mismatch")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrDataUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Skippable reports whether a failure only invalidates the row that produced
// it. Batch callers may drop such rows instead of aborting the run.
func Skippable(err error) bool {
	return errors.Is(err, ErrInvalidSequence) || errors.Is(err, ErrLengthMismatch)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
