package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchedItem is a candidate enriched with the best catalog entry.
type MatchedItem struct {
	CandidateIntervention
	IRCCode       string          `json:"irc_code"`
	Specification string          `json:"specification"`
	StandardRate  decimal.Decimal `json:"standard_rate"`
	Category      string          `json:"category"`
	CatalogType   string          `json:"catalog_type"`
	CatalogUnit   Unit            `json:"catalog_unit"`
	Score         int             `json:"score"`
}

// RateUnit is the unit the standard rate is charged in. Items built without
// a catalog unit fall back to the unit read from the line.
func (m MatchedItem) RateUnit() string {
	if m.CatalogUnit == "" {
		return m.Unit
	}
	return string(m.CatalogUnit)
}

// UnitMismatch reports whether the quantity read from the line is measured
// in a different unit than the catalog rate.
func (m MatchedItem) UnitMismatch() bool {
	u, ok := ParseUnit(m.Unit)
	return ok && m.CatalogUnit != "" && u != m.CatalogUnit
}

// DropReason says why a candidate did not survive matching.
type DropReason string

const (
	DropBelowThreshold DropReason = "below_threshold"
	DropEmptyCatalog   DropReason = "empty_catalog"
)

// DroppedCandidate is a candidate the matcher refused, with the best score it
// reached and the catalog entry that produced it, if any.
type DroppedCandidate struct {
	Candidate CandidateIntervention `json:"candidate"`
	Reason    DropReason            `json:"reason"`
	BestType  string                `json:"best_type,omitempty"`
	BestScore int                   `json:"best_score"`
}

// Message renders the drop as a sentence for the results page.
func (d DroppedCandidate) Message(threshold int) string {
	switch d.Reason {
	case DropEmptyCatalog:
		return "catalog has no entries"
	default:
		if d.BestType == "" {
			return fmt.Sprintf("no catalog entry scored above %d", threshold)
		}
		return fmt.Sprintf("closest entry %q scored %d, needs more than %d", d.BestType, d.BestScore, threshold)
	}
}

// MatchReport separates survivors from dropped candidates. Both keep input
// order.
type MatchReport struct {
	Matched []MatchedItem
	Dropped []DroppedCandidate
}

// Matcher attaches catalog entries to candidates. It holds only read-only
// state and is safe for concurrent use.
type Matcher struct {
	catalog   *Catalog
	threshold int
}

// NewMatcher returns a matcher over catalog using the tunables' threshold.
func NewMatcher(catalog *Catalog, t Tunables) *Matcher {
	return &Matcher{catalog: catalog, threshold: t.MatchThreshold}
}

// Threshold returns the score a match has to exceed.
func (m *Matcher) Threshold() int { return m.threshold }

// BestMatch returns the highest-scoring entry for a type string. Ties keep
// the entry that comes first in the catalog.
func (m *Matcher) BestMatch(interventionType string) (CatalogEntry, int, bool) {
	var (
		best      CatalogEntry
		bestScore = -1
	)
	for _, e := range m.catalog.entries {
		if s := SimilarityScore(interventionType, e.InterventionType); s > bestScore {
			best, bestScore = e, s
		}
	}
	if bestScore < 0 {
		return CatalogEntry{}, 0, false
	}
	return best, bestScore, true
}

// Match scores every candidate independently. A candidate is kept only when
// its best score is strictly greater than the threshold.
func (m *Matcher) Match(candidates []CandidateIntervention) MatchReport {
	var report MatchReport
	for _, c := range candidates {
		entry, score, ok := m.BestMatch(c.Type)
		if !ok {
			report.Dropped = append(report.Dropped, DroppedCandidate{Candidate: c, Reason: DropEmptyCatalog})
			continue
		}
		if score <= m.threshold {
			report.Dropped = append(report.Dropped, DroppedCandidate{
				Candidate: c,
				Reason:    DropBelowThreshold,
				BestType:  entry.InterventionType,
				BestScore: score,
			})
			continue
		}
		report.Matched = append(report.Matched, MatchedItem{
			CandidateIntervention: c,
			IRCCode:               entry.IRCCode,
			Specification:         entry.Specification,
			StandardRate:          entry.BaseRate,
			Category:              entry.Category,
			CatalogType:           entry.InterventionType,
			CatalogUnit:           entry.Unit,
			Score:                 score,
		})
	}
	return report
}
