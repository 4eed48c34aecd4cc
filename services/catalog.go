package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Unit is the canonical measurement unit of a catalog rate.
type Unit string

const (
	UnitCount        Unit = "Nos"
	UnitMeters       Unit = "m"
	UnitKilometers   Unit = "km"
	UnitSquareMeters Unit = "sqm"
)

// unitAliases maps spellings found in catalog sheets to canonical units.
var unitAliases = map[string]Unit{
	"nos":          UnitCount,
	"no":           UnitCount,
	"no.":          UnitCount,
	"number":       UnitCount,
	"numbers":      UnitCount,
	"each":         UnitCount,
	"count":        UnitCount,
	"m":            UnitMeters,
	"rm":           UnitMeters,
	"meter":        UnitMeters,
	"meters":       UnitMeters,
	"metre":        UnitMeters,
	"metres":       UnitMeters,
	"km":           UnitKilometers,
	"kilometer":    UnitKilometers,
	"kilometers":   UnitKilometers,
	"kilometre":    UnitKilometers,
	"kilometres":   UnitKilometers,
	"sqm":          UnitSquareMeters,
	"sq.m":         UnitSquareMeters,
	"sq m":         UnitSquareMeters,
	"m2":           UnitSquareMeters,
	"square meter": UnitSquareMeters,
	"square metre": UnitSquareMeters,
}

// ParseUnit resolves a unit spelling to its canonical form.
func ParseUnit(s string) (Unit, bool) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	return u, ok
}

// CatalogEntry is one row of the reference table. Entries are never mutated
// after the catalog is built.
type CatalogEntry struct {
	InterventionType string
	IRCCode          string
	Specification    string
	Unit             Unit
	BaseRate         decimal.Decimal
	Category         string
}

var notBlank = regexp.MustCompile(`\S`)

// Validate checks the invariants every entry must satisfy.
func (e CatalogEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.InterventionType, validation.Required, validation.Match(notBlank)),
		validation.Field(&e.IRCCode, validation.Required, validation.Match(notBlank)),
		validation.Field(&e.Unit, validation.Required, validation.By(knownUnit)),
		validation.Field(&e.BaseRate, validation.By(positiveRate)),
		validation.Field(&e.Category, validation.Required, validation.Match(notBlank)),
	)
}

func knownUnit(value interface{}) error {
	u, _ := value.(Unit)
	if _, ok := ParseUnit(string(u)); !ok {
		return fmt.Errorf("unknown unit %q", u)
	}
	return nil
}

func positiveRate(value interface{}) error {
	rate, ok := value.(decimal.Decimal)
	if !ok || !rate.IsPositive() {
		return errors.New("must be positive")
	}
	return nil
}

// Catalog is the read-only reference table shared by every pipeline run.
type Catalog struct {
	entries []CatalogEntry
	source  string
}

// NewCatalog copies entries into an immutable catalog.
func NewCatalog(source string, entries []CatalogEntry) *Catalog {
	cp := make([]CatalogEntry, len(entries))
	copy(cp, entries)
	return &Catalog{entries: cp, source: source}
}

// Entries returns a copy of all entries in load order.
func (c *Catalog) Entries() []CatalogEntry {
	cp := make([]CatalogEntry, len(c.entries))
	copy(cp, c.entries)
	return cp
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Source names where the catalog came from: a file path or "fallback".
func (c *Catalog) Source() string { return c.source }

// Lookup finds an entry by exact, case-insensitive intervention type.
func (c *Catalog) Lookup(interventionType string) (CatalogEntry, bool) {
	want := strings.ToLower(strings.TrimSpace(interventionType))
	for _, e := range c.entries {
		if strings.ToLower(e.InterventionType) == want {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// FallbackSource is the Source of the hardcoded catalog.
const FallbackSource = "fallback"

// FallbackCatalog returns the built-in reference table used when no catalog
// file can be read.
func FallbackCatalog() *Catalog {
	rows := []struct {
		kind, code, spec string
		unit             Unit
		rate             int64
		category         string
	}{
		{"Rumble Strip", "IRC:99-2018", "Thermoplastic rumble strips, 100mm width", UnitMeters, 500, "Traffic Calming"},
		{"Speed Hump", "IRC:99-2018", "Speed hump as per IRC standards", UnitCount, 25000, "Traffic Calming"},
		{"Road Marking", "IRC:35-2015", "Thermoplastic road marking paint", UnitSquareMeters, 350, "Road Marking"},
		{"Guard Rail", "IRC:SP:73-2018", "W-beam metal guard rail", UnitMeters, 1500, "Safety Barrier"},
		{"Signage", "IRC:67-2012", "Retroreflective signage as per IRC", UnitCount, 5000, "Signage"},
		{"Street Light", "IRC:SP:21-2009", "LED street light 150W", UnitCount, 15000, "Lighting"},
		{"Crash Barrier", "IRC:SP:73-2018", "Concrete crash barrier", UnitMeters, 2500, "Safety Barrier"},
		{"Delineator", "IRC:35-2015", "Road delineator posts", UnitCount, 800, "Delineation"},
		{"Reflector", "IRC:35-2015", "Reflective markers", UnitCount, 200, "Delineation"},
		{"Chevron Sign", "IRC:67-2012", "Chevron alignment markers", UnitCount, 3000, "Signage"},
		{"Warning Sign", "IRC:67-2012", "Triangle warning signs", UnitCount, 2500, "Signage"},
		{"Regulatory Sign", "IRC:67-2012", "Circular regulatory signs", UnitCount, 2500, "Signage"},
		{"Pavement Marking", "IRC:35-2015", "Thermoplastic pavement marking", UnitSquareMeters, 350, "Road Marking"},
		{"Traffic Signal", "IRC:93-1985", "Traffic signal poles and lights", UnitCount, 250000, "Traffic Control"},
		{"Pedestrian Crossing", "IRC:103-2012", "Zebra crossing markings", UnitSquareMeters, 400, "Road Marking"},
	}

	entries := make([]CatalogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, CatalogEntry{
			InterventionType: r.kind,
			IRCCode:          r.code,
			Specification:    r.spec,
			Unit:             r.unit,
			BaseRate:         decimal.NewFromInt(r.rate),
			Category:         r.category,
		})
	}
	return NewCatalog(FallbackSource, entries)
}

// CatalogPaths expands a file name against the search directories, in order.
func CatalogPaths(fileName string, dirs []string) []string {
	if filepath.IsAbs(fileName) {
		return []string{fileName}
	}
	paths := make([]string, 0, len(dirs))
	for _, d := range dirs {
		paths = append(paths, filepath.Join(d, fileName))
	}
	return paths
}

// LoadCatalog tries each path in order and returns the first catalog that
// parses with at least one valid row. When every path fails, the fallback
// catalog is returned, so the result is never nil.
func LoadCatalog(paths []string, logger *zap.Logger) *Catalog {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			logger.Debug("catalog candidate not present", zap.String("path", path))
			continue
		}
		cat, err := ReadCatalogFile(path, logger)
		if err != nil {
			logger.Warn("catalog file unusable", zap.String("path", path), zap.Error(err))
			continue
		}
		logger.Info("catalog loaded", zap.String("path", path), zap.Int("entries", cat.Len()))
		return cat
	}

	cat := FallbackCatalog()
	logger.Info("catalog file not found, using built-in reference table", zap.Int("entries", cat.Len()))
	return cat
}

// ReadCatalogFile parses an .xlsx or .csv reference table.
func ReadCatalogFile(path string, logger *zap.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readCatalogExcel(f)
	case ".csv":
		rows, err = readCatalogCSV(f)
	default:
		return nil, fmt.Errorf("%w: catalog %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	entries, err := parseCatalogRows(rows, logger)
	if err != nil {
		return nil, err
	}
	return NewCatalog(path, entries), nil
}

func readCatalogExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

func readCatalogCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

// catalogColumns are the header labels, matched case-insensitively.
var catalogColumns = []string{
	"intervention type",
	"irc code",
	"specification",
	"unit",
	"standard rate",
	"category",
}

// parseCatalogRows maps the header row onto catalogColumns and converts the
// data rows. Invalid rows are skipped with a warning.
func parseCatalogRows(rows [][]string, logger *zap.Logger) ([]CatalogEntry, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("catalog must contain a header row and at least one data row")
	}

	index := make(map[string]int, len(catalogColumns))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range catalogColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("catalog header is missing column %q", c)
		}
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []CatalogEntry
	for n, row := range rows[1:] {
		rowNum := n + 2
		rate, err := decimal.NewFromString(strings.ReplaceAll(cell(row, "standard rate"), ",", ""))
		if err != nil {
			logger.Warn("catalog row skipped", zap.Int("row", rowNum), zap.String("reason", "rate is not a number"))
			continue
		}
		unit, ok := ParseUnit(cell(row, "unit"))
		if !ok {
			logger.Warn("catalog row skipped", zap.Int("row", rowNum), zap.String("reason", "unknown unit"))
			continue
		}
		entry := CatalogEntry{
			InterventionType: cell(row, "intervention type"),
			IRCCode:          cell(row, "irc code"),
			Specification:    cell(row, "specification"),
			Unit:             unit,
			BaseRate:         rate,
			Category:         cell(row, "category"),
		}
		if err := entry.Validate(); err != nil {
			logger.Warn("catalog row skipped", zap.Int("row", rowNum), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog has no valid rows")
	}
	return entries, nil
}
