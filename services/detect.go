package services

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CandidateIntervention is one keyword hit derived from a single line of the
// audit document.
type CandidateIntervention struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Chainage    string  `json:"chainage"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// DefaultLocation is used when a line carries no km or chainage reference.
const DefaultLocation = "Location not specified"

// interventionKeywords is scanned in order; the first phrase contained in a
// line decides its type.
var interventionKeywords = []string{
	"rumble strip", "speed hump", "speed breaker", "signage", "road marking",
	"guard rail", "crash barrier", "street light", "road furniture",
	"pavement marking", "chevron sign", "warning sign", "regulatory sign",
	"reflector", "delineator", "traffic signal", "pedestrian crossing",
	"speed limit", "road widening", "intersection improvement", "curve improvement",
	"shoulder paving", "drainage", "cattle catcher", "solar blinker",
}

type locationRule struct {
	pattern *regexp.Regexp
	format  func(match string) string
}

func kmLocation(n string) string { return "Km " + n }
func rawLocation(n string) string { return n }

// locationRules are tried in order; the first match wins.
var locationRules = []locationRule{
	{regexp.MustCompile(`(?i)\bat\s+km\s*(\d+\.?\d*)`), kmLocation},
	{regexp.MustCompile(`(?i)\bkm\s*(\d+\.?\d*)`), kmLocation},
	{regexp.MustCompile(`(?i)\bchainage\s*(\d+\+\d+|\d+)`), rawLocation},
	{regexp.MustCompile(`(?i)\bch\.?\s*(\d+\+\d+|\d+)`), rawLocation},
}

// chainageRules are narrower than locationRules: an explicit N+NNN chainage
// first, then a km reading.
var chainageRules = []*regexp.Regexp{
	regexp.MustCompile(`(\d+\+\d+)`),
	regexp.MustCompile(`(?i)\bkm\s*(\d+\.?\d*)`),
}

type quantityRule struct {
	pattern *regexp.Regexp
	unit    Unit
}

// quantityRules capture a number directly before a unit token. Order
// matters: counts, then meters, then kilometers, then square meters.
var quantityRules = []quantityRule{
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:nos?|numbers?|qty)\b`), UnitCount},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:meters?|metres?|m)\b`), UnitMeters},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:km|kilometers?|kilometres?)\b`), UnitKilometers},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:sqm|sq\.\s?m|square\s+meters?|square\s+metres?)\b`), UnitSquareMeters},
}

// unitKeywords is the fallback unit lookup when no quantity was captured.
// Longer phrases come first so "square meter" is not read as "meter".
var unitKeywords = []struct {
	token string
	unit  Unit
}{
	{"square meter", UnitSquareMeters},
	{"square metre", UnitSquareMeters},
	{"sqm", UnitSquareMeters},
	{"sq.m", UnitSquareMeters},
	{"kilometer", UnitKilometers},
	{"kilometre", UnitKilometers},
	{"meter", UnitMeters},
	{"metre", UnitMeters},
	{"nos", UnitCount},
	{"number", UnitCount},
}

// Detector scans extracted text for intervention keywords.
type Detector struct {
	minLineLength int
}

// NewDetector builds a detector using the tunables' minimum line length.
func NewDetector(t Tunables) *Detector {
	return &Detector{minLineLength: t.MinLineLength}
}

// Detect returns the deduplicated candidates in order of first occurrence.
func (d *Detector) Detect(text string) []CandidateIntervention {
	var candidates []CandidateIntervention
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < d.minLineLength {
			continue
		}

		keyword, ok := matchKeyword(trimmed)
		if !ok {
			continue
		}

		key := strings.ToLower(trimmed)
		if len(key) <= d.minLineLength || seen[key] {
			continue
		}
		seen[key] = true

		candidates = append(candidates, buildCandidate(keyword, trimmed))
	}
	return candidates
}

// matchKeyword returns the first vocabulary phrase the line contains.
func matchKeyword(line string) (string, bool) {
	lower := strings.ToLower(line)
	for _, kw := range interventionKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

func buildCandidate(keyword, line string) CandidateIntervention {
	qty, unit := extractQuantity(line)
	return CandidateIntervention{
		Type:        cases.Title(language.English).String(keyword),
		Description: line,
		Location:    extractLocation(line),
		Chainage:    extractChainage(line),
		Quantity:    qty,
		Unit:        string(unit),
	}
}

func extractLocation(line string) string {
	for _, r := range locationRules {
		if m := r.pattern.FindStringSubmatch(line); m != nil {
			return r.format(m[1])
		}
	}
	return DefaultLocation
}

func extractChainage(line string) string {
	for _, re := range chainageRules {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractQuantity never returns a quantity <= 0; unparsable or zero values
// fall through to the next rule and finally to 1.
func extractQuantity(line string) (float64, Unit) {
	for _, r := range quantityRules {
		for _, m := range r.pattern.FindAllStringSubmatch(line, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil && v > 0 {
				return v, r.unit
			}
		}
	}
	return 1.0, lookupUnit(line)
}

func lookupUnit(line string) Unit {
	lower := strings.ToLower(line)
	for _, u := range unitKeywords {
		if strings.Contains(lower, u.token) {
			return u.unit
		}
	}
	return UnitCount
}
