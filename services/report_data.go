package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// ReportOptions is the metadata bundle the report is rendered with.
type ReportOptions struct {
	Title            string `json:"title"`
	ProjectName      string `json:"project_name"`
	Consultant       string `json:"consultant"`
	Date             string `json:"date"`
	IncludeCitations bool   `json:"include_citations"`
	IncludeCharts    bool   `json:"include_charts"`
}

const (
	DefaultReportTitle   = "Road Safety Audit Cost Estimate"
	DefaultReportProject = "Highway Safety Improvement"
)

// DefaultReportOptions returns the options used when a caller leaves them
// empty: both sections on and today's date.
func DefaultReportOptions(now time.Time) ReportOptions {
	return ReportOptions{
		Title:            DefaultReportTitle,
		ProjectName:      DefaultReportProject,
		Date:             now.Format("2006-01-02"),
		IncludeCitations: true,
		IncludeCharts:    true,
	}
}

// Validate bounds the free-text fields.
func (o ReportOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Title, validation.RuneLength(0, 200)),
		validation.Field(&o.ProjectName, validation.RuneLength(0, 200)),
		validation.Field(&o.Consultant, validation.RuneLength(0, 200)),
		validation.Field(&o.Date, validation.RuneLength(0, 40)),
	)
}

// WithDefaults fills empty text fields. The boolean flags are kept as given.
func (o ReportOptions) WithDefaults(now time.Time) ReportOptions {
	if strings.TrimSpace(o.Title) == "" {
		o.Title = DefaultReportTitle
	}
	if strings.TrimSpace(o.ProjectName) == "" {
		o.ProjectName = DefaultReportProject
	}
	if strings.TrimSpace(o.Date) == "" {
		o.Date = now.Format("2006-01-02")
	}
	return o
}

// Citation pairs an IRC code with its document title.
type Citation struct {
	Code        string
	Description string
}

// GenericCitation is shown for codes missing from ircDescriptions.
const GenericCitation = "IRC Standard"

// unitMismatchNote explains the marker on quantities whose unit differs from
// the unit the rate is charged in.
const unitMismatchNote = "* Quantity unit differs from the catalog rate unit. Check the quantity before use."

var ircDescriptions = map[string]string{
	"IRC:99-2018":    "Tentative Guidelines on the Provision of Road Traffic Calming Measures",
	"IRC:35-2015":    "Code of Practice for Road Markings",
	"IRC:SP:73-2018": "Manual of Specifications and Standards for Expressways",
	"IRC:67-2012":    "Code of Practice for Road Signs",
	"IRC:SP:21-2009": "Standard Specifications and Code of Practice for Road Bridges",
	"IRC:93-1985":    "Guidelines on Design and Installation of Road Traffic Signals",
	"IRC:103-2012":   "Guidelines for Pedestrian Facilities",
}

// Citations returns the distinct IRC codes of items, sorted, each with its
// description.
func Citations(items []PricedItem) []Citation {
	seen := make(map[string]bool)
	var codes []string
	for _, item := range items {
		code := strings.TrimSpace(item.IRCCode)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]Citation, 0, len(codes))
	for _, code := range codes {
		desc, ok := ircDescriptions[code]
		if !ok {
			desc = GenericCitation
		}
		out = append(out, Citation{Code: code, Description: desc})
	}
	return out
}

// ReportData holds everything needed to render a report.
type ReportData struct {
	Options   ReportOptions
	Items     []PricedItem
	Summary   PriceSummary
	Citations []Citation
	GSTRate   decimal.Decimal
}

// NewReportData derives the summary and citations from items.
func NewReportData(opts ReportOptions, items []PricedItem, gstRate decimal.Decimal) ReportData {
	return ReportData{
		Options:   opts,
		Items:     items,
		Summary:   Summarize(items),
		Citations: Citations(items),
		GSTRate:   gstRate,
	}
}

// GSTLabel renders the tax line label, e.g. "GST @ 18%".
func (d ReportData) GSTLabel() string {
	return fmt.Sprintf("GST @ %s%%", d.GSTRate.Mul(decimal.NewFromInt(100)).String())
}

// ExecutiveSummary is the narrative paragraph of the report.
func (d ReportData) ExecutiveSummary() string {
	return fmt.Sprintf(
		"This report presents a detailed cost estimate for road safety interventions identified "+
			"during the safety audit. The estimate includes %d intervention items with a total "+
			"estimated cost of %s (including GST).\n\n"+
			"All cost estimates are based on IRC (Indian Roads Congress) standards and current "+
			"market rates. The interventions are categorized and priced according to their type "+
			"and specifications.",
		d.Summary.TotalItems, FormatRs(d.Summary.TotalWithGST),
	)
}

// CategoryShare is one bar of the category chart.
type CategoryShare struct {
	Category string
	Percent  float64
	Bar      string
}

const chartWidth = 40

// CategoryShares converts the category totals into proportional text bars.
func (d ReportData) CategoryShares() []CategoryShare {
	total := d.Summary.TotalWithGST
	out := make([]CategoryShare, 0, len(d.Summary.Categories))
	for _, c := range d.Summary.Categories {
		pct := 0.0
		if total.IsPositive() {
			pct = c.TotalWithGST.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		n := int(pct/100*chartWidth + 0.5)
		out = append(out, CategoryShare{
			Category: c.Category,
			Percent:  pct,
			Bar:      strings.Repeat("|", n),
		})
	}
	return out
}

var typographicReplacer = strings.NewReplacer(
	"•", "-",
	"–", "-",
	"—", "--",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"₹", "Rs.",
)

// CleanText maps typographic characters to plain equivalents and drops
// anything the Latin-1 core PDF fonts cannot show.
func CleanText(s string) string {
	s = typographicReplacer.Replace(s)
	var sb strings.Builder
	for _, r := range s {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ReportFileName is the timestamped artifact name, e.g.
// road_safety_report_20250131_142501.pdf.
func ReportFileName(now time.Time, ext string) string {
	return fmt.Sprintf("road_safety_report_%s%s", now.Format("20060102_150405"), ext)
}

// ReportPath joins dir and the timestamped file name.
func ReportPath(dir string, now time.Time, ext string) string {
	return filepath.Join(dir, ReportFileName(now, ext))
}
