package services

import (
	"fmt"
	"time"
)

// Tunables holds every threshold and rate the pipeline depends on. It is
// built once at startup and passed by value into the components that need it.
type Tunables struct {
	// MatchThreshold is the minimum fuzzy score (0-100). A candidate whose
	// best score is at or below it is dropped.
	MatchThreshold int
	// InflationRate is the compounding annual rate used for the time factor.
	InflationRate float64
	// GSTRate is the flat tax applied to every line total.
	GSTRate float64
	// MinLineLength is the shortest trimmed line the detector will look at.
	MinLineLength int
	// MinYear and MaxYear bound the reference price year. A zero MaxYear
	// means "the current year".
	MinYear int
	MaxYear int
}

// DefaultTunables returns the production defaults.
//
// Older project notes quote a 6% inflation rate and an 80% match threshold;
// neither was ever used for pricing, so 5% and 60% are the defaults here.
func DefaultTunables() Tunables {
	return Tunables{
		MatchThreshold: 60,
		InflationRate:  0.05,
		GSTRate:        0.18,
		MinLineLength:  10,
		MinYear:        2015,
	}
}

// YearBounds resolves the allowed reference-year window against now.
func (t Tunables) YearBounds(now time.Time) (int, int) {
	maxYear := t.MaxYear
	if maxYear == 0 {
		maxYear = now.Year()
	}
	return t.MinYear, maxYear
}

// Validate rejects tunables that would make the pipeline meaningless.
func (t Tunables) Validate() error {
	if t.MatchThreshold <= 0 || t.MatchThreshold > 100 {
		return fmt.Errorf("match threshold must be in (0, 100], got %d", t.MatchThreshold)
	}
	if t.InflationRate < 0 {
		return fmt.Errorf("inflation rate must not be negative, got %v", t.InflationRate)
	}
	if t.GSTRate < 0 {
		return fmt.Errorf("gst rate must not be negative, got %v", t.GSTRate)
	}
	if t.MinLineLength < 1 {
		return fmt.Errorf("min line length must be positive, got %d", t.MinLineLength)
	}
	if t.MaxYear != 0 && t.MaxYear < t.MinYear {
		return fmt.Errorf("year window [%d, %d] is empty", t.MinYear, t.MaxYear)
	}
	return nil
}
