package services

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	grayText   = &props.Color{Red: 80, Green: 80, Blue: 80}
	headerBg   = &props.Color{Red: 33, Green: 37, Blue: 41}
	summaryBg  = &props.Color{Red: 240, Green: 240, Blue: 240}
	whiteText  = &props.Color{Red: 255, Green: 255, Blue: 255}
	borderCell = &props.Cell{BorderType: border.Full}
)

// GenerateReportPDF renders the estimate report with maroto/v2 and returns
// the PDF bytes. Sections: cover, executive summary, category chart
// (optional), detailed estimate, IRC references (optional), cost summary.
func GenerateReportPDF(data ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	m.AddPages(coverPage(data.Options))

	body := page.New()
	body.Add(executiveSummaryRows(data)...)
	if data.Options.IncludeCharts && len(data.Summary.Categories) > 0 {
		body.Add(categoryChartRows(data)...)
	}
	m.AddPages(body)

	m.AddPages(page.New().Add(estimateTableRows(data)...))

	if data.Options.IncludeCitations && len(data.Citations) > 0 {
		m.AddPages(page.New().Add(citationRows(data)...))
	}

	m.AddPages(page.New().Add(costSummaryRows(data)...))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// WriteReportPDF renders the report into dir under a timestamped name and
// returns the full path.
func WriteReportPDF(dir string, now time.Time, data ReportData) (string, error) {
	pdf, err := GenerateReportPDF(data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := ReportPath(dir, now, ".pdf")
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return filepath.Clean(path), nil
}

func sectionTitle(title string, size float64) core.Row {
	return row.New(12).Add(
		col.New(12).Add(text.New(title, props.Text{Size: size, Style: fontstyle.Bold})),
	)
}

func coverPage(opts ReportOptions) core.Page {
	p := page.New()
	p.Add(
		row.New(60),
		row.New(20).Add(col.New(12).Add(text.New(CleanText(opts.Title), props.Text{
			Size:  24,
			Style: fontstyle.Bold,
			Align: align.Center,
		}))),
		row.New(15).Add(col.New(12).Add(text.New(CleanText(opts.ProjectName), props.Text{
			Size:  16,
			Align: align.Center,
		}))),
		row.New(30),
	)
	if opts.Consultant != "" {
		p.Add(row.New(10).Add(col.New(12).Add(text.New(CleanText("Prepared by: "+opts.Consultant), props.Text{
			Size:  12,
			Align: align.Center,
		}))))
	}
	p.Add(row.New(10).Add(col.New(12).Add(text.New("Date: "+CleanText(opts.Date), props.Text{
		Size:  12,
		Align: align.Center,
	}))))
	return p
}

func executiveSummaryRows(data ReportData) []core.Row {
	return []core.Row{
		sectionTitle("Executive Summary", 16),
		row.New(5),
		row.New(40).Add(col.New(12).Add(text.New(CleanText(data.ExecutiveSummary()), props.Text{
			Size: 11,
		}))),
		row.New(10),
	}
}

func categoryChartRows(data ReportData) []core.Row {
	rows := []core.Row{
		sectionTitle("Cost Share by Category", 14),
		row.New(3),
	}
	for _, s := range data.CategoryShares() {
		rows = append(rows, row.New(7).Add(
			col.New(3).Add(text.New(CleanText(s.Category), props.Text{Size: 9})),
			col.New(7).Add(text.New(s.Bar, props.Text{Size: 9, Style: fontstyle.Bold, Color: grayText})),
			col.New(2).Add(text.New(fmt.Sprintf("%.1f%%", s.Percent), props.Text{Size: 9, Align: align.Right})),
		))
	}
	return rows
}

func estimateTableRows(data ReportData) []core.Row {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: whiteText}
	headLeft := head
	headLeft.Align = align.Left
	headCell := &props.Cell{BackgroundColor: headerBg, BorderType: border.Full}

	rows := []core.Row{
		sectionTitle("Detailed Cost Estimate", 14),
		row.New(5),
		row.New(8).Add(
			col.New(1).Add(text.New("No.", head)).WithStyle(headCell),
			col.New(3).Add(text.New("Intervention", headLeft)).WithStyle(headCell),
			col.New(2).Add(text.New("Location", headLeft)).WithStyle(headCell),
			col.New(1).Add(text.New("Qty", head)).WithStyle(headCell),
			col.New(1).Add(text.New("Unit", head)).WithStyle(headCell),
			col.New(2).Add(text.New("Rate (Rs./unit)", head)).WithStyle(headCell),
			col.New(2).Add(text.New("Cost (Rs.)", head)).WithStyle(headCell),
		),
	}

	cell := props.Text{Size: 7, Align: align.Center}
	left := cell
	left.Align = align.Left
	right := cell
	right.Align = align.Right

	mismatch := false
	for i, item := range data.Items {
		unit := CleanText(item.Unit)
		if item.UnitMismatch() {
			unit += "*"
			mismatch = true
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(i+1), cell)).WithStyle(borderCell),
			col.New(3).Add(text.New(truncate(CleanText(item.Type), 25), left)).WithStyle(borderCell),
			col.New(2).Add(text.New(truncate(CleanText(item.Location), 15), left)).WithStyle(borderCell),
			col.New(1).Add(text.New(formatQty(item.Quantity), right)).WithStyle(borderCell),
			col.New(1).Add(text.New(unit, cell)).WithStyle(borderCell),
			col.New(2).Add(text.New(FormatRs(item.AdjustedRate)+"/"+CleanText(item.RateUnit()), right)).WithStyle(borderCell),
			col.New(2).Add(text.New(FormatRs(item.TotalWithGST), right)).WithStyle(borderCell),
		))
	}
	if mismatch {
		rows = append(rows, row.New(6).Add(
			col.New(12).Add(text.New(unitMismatchNote, props.Text{Size: 7, Style: fontstyle.Italic, Top: 1})),
		))
	}
	return append(rows, row.New(5))
}

func citationRows(data ReportData) []core.Row {
	rows := []core.Row{
		sectionTitle("IRC Code References", 14),
		row.New(5),
	}
	for _, c := range data.Citations {
		rows = append(rows, row.New(8).Add(
			col.New(3).Add(text.New(CleanText(c.Code), props.Text{Size: 10, Style: fontstyle.Bold})),
			col.New(9).Add(text.New(CleanText(c.Description), props.Text{Size: 10})),
		))
	}
	return rows
}

func costSummaryRows(data ReportData) []core.Row {
	head := props.Text{Size: 9, Style: fontstyle.Bold}
	headRight := head
	headRight.Align = align.Right
	body := props.Text{Size: 9}
	bodyRight := body
	bodyRight.Align = align.Right

	rows := []core.Row{
		sectionTitle("Cost Summary", 14),
		row.New(5),
		row.New(8).Add(col.New(12).Add(text.New("Category-wise Breakdown:", props.Text{Size: 11, Style: fontstyle.Bold}))),
		row.New(8).Add(
			col.New(6).Add(text.New("Category", head)).WithStyle(borderCell),
			col.New(2).Add(text.New("Count", headRight)).WithStyle(borderCell),
			col.New(4).Add(text.New("Total Cost (Rs.)", headRight)).WithStyle(borderCell),
		),
	}
	for _, c := range data.Summary.Categories {
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(CleanText(c.Category), body)).WithStyle(borderCell),
			col.New(2).Add(text.New(strconv.Itoa(c.Count), bodyRight)).WithStyle(borderCell),
			col.New(4).Add(text.New(FormatRs(c.TotalWithGST), bodyRight)).WithStyle(borderCell),
		))
	}

	totalCell := &props.Cell{BackgroundColor: summaryBg, BorderType: border.Full}
	label := props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}
	grand := label
	grand.Size = 13

	rows = append(rows,
		row.New(10),
		row.New(8).Add(
			col.New(8).Add(text.New("Subtotal:", label)).WithStyle(totalCell),
			col.New(4).Add(text.New(FormatRs(data.Summary.TotalCost), label)).WithStyle(totalCell),
		),
		row.New(8).Add(
			col.New(8).Add(text.New(data.GSTLabel()+":", label)).WithStyle(totalCell),
			col.New(4).Add(text.New(FormatRs(data.Summary.TotalGST), label)).WithStyle(totalCell),
		),
		row.New(10).Add(
			col.New(8).Add(text.New("Grand Total:", grand)).WithStyle(totalCell),
			col.New(4).Add(text.New(FormatRs(data.Summary.TotalWithGST), grand)).WithStyle(totalCell),
		),
	)
	return rows
}

// formatQty prints whole quantities without decimals and fractional ones
// with two.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}
