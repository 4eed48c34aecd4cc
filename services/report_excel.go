package services

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	SheetDetailed = "Detailed Estimate"
	SheetCategory = "Category Summary"
	SheetOverall  = "Overall Summary"
)

// GenerateEstimateExcel writes the priced items to a workbook with three
// sheets: every line item, per-category totals and the overall summary.
// Money cells are numeric so they can be summed in Excel.
func GenerateEstimateExcel(data ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetDetailed); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for _, name := range []string{SheetCategory, SheetOverall} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "#FFFFFF",
			Size:  11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#333333"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	cellStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	styles := sheetStyles{header: headerStyle, cell: cellStyle, money: moneyStyle}

	if err := writeDetailedSheet(f, data, styles); err != nil {
		return nil, err
	}
	if err := writeCategorySheet(f, data, styles); err != nil {
		return nil, err
	}
	if err := writeOverallSheet(f, data, styles); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteEstimateExcel renders the workbook into dir next to the PDF report.
func WriteEstimateExcel(dir string, now time.Time, data ReportData) (string, error) {
	b, err := GenerateEstimateExcel(data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := ReportPath(dir, now, ".xlsx")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	return path, nil
}

type sheetStyles struct {
	header, cell, money int
}

// column describes one sheet column: header, width and whether it holds money.
type column struct {
	header string
	width  float64
	money  bool
}

func writeHeader(f *excelize.File, sheet string, cols []column, style int) error {
	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return fmt.Errorf("set col width %s: %w", name, err)
		}
		f.SetCellValue(sheet, name+"1", c.header)
	}
	last, _ := excelize.ColumnNumberToName(len(cols))
	return f.SetCellStyle(sheet, "A1", last+"1", style)
}

func writeRow(f *excelize.File, sheet string, rowNum int, cols []column, values []interface{}, styles sheetStyles) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if s, ok := v.(string); ok {
			v = sanitizeExcelCell(s)
		}
		f.SetCellValue(sheet, cell, v)
		style := styles.cell
		if cols[i].money {
			style = styles.money
		}
		f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

var detailedColumns = []column{
	{"No.", 6, false},
	{"Intervention Type", 24, false},
	{"Description", 48, false},
	{"Location", 18, false},
	{"Chainage", 12, false},
	{"Quantity", 10, false},
	{"Unit", 8, false},
	{"Rate Unit", 10, false},
	{"IRC Code", 16, false},
	{"Specification", 36, false},
	{"Category", 18, false},
	{"Match Score", 12, false},
	{"Standard Rate", 14, true},
	{"Adjusted Rate", 14, true},
	{"Total Cost", 16, true},
	{"GST Amount", 14, true},
	{"Total with GST", 16, true},
	{"Region", 18, false},
	{"Price Year", 10, false},
}

func writeDetailedSheet(f *excelize.File, data ReportData, styles sheetStyles) error {
	if err := writeHeader(f, SheetDetailed, detailedColumns, styles.header); err != nil {
		return err
	}
	for i, item := range data.Items {
		values := []interface{}{
			i + 1,
			item.Type,
			item.Description,
			item.Location,
			item.Chainage,
			item.Quantity,
			item.Unit,
			item.RateUnit(),
			item.IRCCode,
			item.Specification,
			item.Category,
			item.Score,
			item.StandardRate.InexactFloat64(),
			item.AdjustedRate.InexactFloat64(),
			item.TotalCost.InexactFloat64(),
			item.GSTAmount.InexactFloat64(),
			item.TotalWithGST.InexactFloat64(),
			item.Region,
			item.PriceYear,
		}
		if err := writeRow(f, SheetDetailed, i+2, detailedColumns, values, styles); err != nil {
			return err
		}
	}
	return nil
}

var categoryColumns = []column{
	{"Category", 24, false},
	{"Count", 8, false},
	{"Total Cost", 16, true},
	{"GST Amount", 14, true},
	{"Total with GST", 16, true},
}

func writeCategorySheet(f *excelize.File, data ReportData, styles sheetStyles) error {
	if err := writeHeader(f, SheetCategory, categoryColumns, styles.header); err != nil {
		return err
	}
	for i, c := range data.Summary.Categories {
		values := []interface{}{
			c.Category,
			c.Count,
			c.TotalCost.InexactFloat64(),
			c.GSTAmount.InexactFloat64(),
			c.TotalWithGST.InexactFloat64(),
		}
		if err := writeRow(f, SheetCategory, i+2, categoryColumns, values, styles); err != nil {
			return err
		}
	}
	return nil
}

var overallColumns = []column{
	{"Total Items", 12, false},
	{"Total Cost before GST", 20, true},
	{"Total GST", 16, true},
	{"Total Cost with GST", 20, true},
	{"Average Cost per Item", 20, true},
}

func writeOverallSheet(f *excelize.File, data ReportData, styles sheetStyles) error {
	if err := writeHeader(f, SheetOverall, overallColumns, styles.header); err != nil {
		return err
	}
	s := data.Summary
	values := []interface{}{
		s.TotalItems,
		s.TotalCost.InexactFloat64(),
		s.TotalGST.InexactFloat64(),
		s.TotalWithGST.InexactFloat64(),
		s.AverageCost.InexactFloat64(),
	}
	return writeRow(f, SheetOverall, 2, overallColumns, values, styles)
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1,
		}
	}
	return borders
}
