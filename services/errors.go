package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when an upload's suffix is not one the
// extractor understands. It is never retried.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// StrategyFailure records why one extraction strategy gave up.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// ExtractionError is returned only after every extraction strategy for a
// format has failed.
type ExtractionError struct {
	Format   Format
	Failures []StrategyFailure
}

func (e *ExtractionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Strategy, f.Err))
	}
	return fmt.Sprintf("could not extract text from %s document (%s)", e.Format, strings.Join(parts, "; "))
}

func (e *ExtractionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
