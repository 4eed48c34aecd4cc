package templates

import (
	"fmt"

	"github.com/a-h/templ"
)

type ResultItem struct {
	No           int
	Type         string
	Description  string
	Location     string
	Chainage     string
	Quantity     string
	Unit         string
	RateUnit     string
	UnitMismatch bool
	IRCCode      string
	Category     string
	Score        int
	Rate         string
	TotalCost    string
	TotalWithGST string
}

// DroppedItem is a candidate that had no catalog match above the threshold.
type DroppedItem struct {
	Type        string
	Description string
	Reason      string
}

type CategoryRow struct {
	Category     string
	Count        int
	TotalWithGST string
}

type DeliveryView struct {
	OK      bool
	Message string
}

// ResultsData is one finished pipeline run as shown to the user.
type ResultsData struct {
	RunID       string
	FileName    string
	Strategy    string
	Region      string
	KnownRegion bool
	Year        int

	Items      []ResultItem
	Dropped    []DroppedItem
	Categories []CategoryRow

	TotalItems int
	Subtotal   string
	GSTLabel   string
	GST        string
	GrandTotal string
	Average    string

	ReportURL string
	ExcelURL  string
	Delivery  *DeliveryView
}

func ResultsContent(data ResultsData) templ.Component {
	return render(func(p *page) {
		p.raw(`<div class="card"><h2>Estimate</h2>`)
		p.rawf(`<p class="muted">%s, extracted with %s. Run %s.</p>`, data.FileName, data.Strategy, data.RunID)
		p.rawf(`<p>Location: <strong>%s</strong>`, data.Region)
		if !data.KnownRegion {
			p.raw(` <span class="fail">(unknown location, no regional adjustment applied)</span>`)
		}
		p.raw(fmt.Sprintf(` &middot; Price year: <strong>%d</strong></p>`, data.Year))

		p.raw(`<table><tr><th>Items</th><th>Subtotal</th>`)
		p.rawf(`<th>%s</th>`, data.GSTLabel)
		p.raw(`<th>Grand total</th><th>Average per item</th></tr>`)
		p.raw(fmt.Sprintf(`<tr><td class="num">%d</td>`, data.TotalItems))
		p.rawf(`<td class="num">%s</td><td class="num">%s</td><td class="num"><strong>%s</strong></td><td class="num">%s</td></tr></table>`,
			data.Subtotal, data.GST, data.GrandTotal, data.Average)

		p.raw(`<p>`)
		if data.ReportURL != "" {
			p.rawf(`<a href="%s">Download PDF report</a>`, data.ReportURL)
		}
		if data.ExcelURL != "" {
			p.rawf(` &middot; <a href="%s">Download Excel workbook</a>`, data.ExcelURL)
		}
		p.raw(`</p>`)

		if data.Delivery != nil {
			class := "fail"
			if data.Delivery.OK {
				class = "ok"
			}
			p.rawf(`<p class="%s">%s</p>`, class, data.Delivery.Message)
		}
		p.raw(`</div>`)

		writeItems(p, data.Items)
		writeCategories(p, data.Categories)
		writeDropped(p, data.Dropped)
	})
}

func writeItems(p *page, items []ResultItem) {
	p.raw(`<div class="card"><h3>Detailed estimate</h3>`)
	if len(items) == 0 {
		p.raw(`<p>No interventions matched the catalog.</p></div>`)
		return
	}
	p.raw(`<table><tr><th>No.</th><th>Intervention</th><th>Description</th><th>Location</th><th>Chainage</th>`)
	p.raw(`<th>Qty</th><th>Unit</th><th>IRC Code</th><th>Category</th><th>Match</th><th>Rate</th><th>Cost</th><th>Cost incl. GST</th></tr>`)
	for _, it := range items {
		p.raw(fmt.Sprintf(`<tr><td>%d</td>`, it.No))
		p.rawf(`<td>%s</td><td>%s</td><td>%s</td><td>%s</td>`, it.Type, it.Description, it.Location, it.Chainage)
		p.rawf(`<td class="num">%s</td><td>%s`, it.Quantity, it.Unit)
		if it.UnitMismatch {
			p.rawf(` <span class="fail" title="quantity unit differs from the rate unit">(rate per %s)</span>`, it.RateUnit)
		}
		p.rawf(`</td><td>%s</td><td>%s</td>`, it.IRCCode, it.Category)
		p.raw(fmt.Sprintf(`<td class="num">%d%%</td>`, it.Score))
		p.rawf(`<td class="num">%s/%s</td><td class="num">%s</td><td class="num">%s</td></tr>`, it.Rate, it.RateUnit, it.TotalCost, it.TotalWithGST)
	}
	p.raw(`</table></div>`)
}

func writeCategories(p *page, rows []CategoryRow) {
	if len(rows) == 0 {
		return
	}
	p.raw(`<div class="card"><h3>Category breakdown</h3><table><tr><th>Category</th><th>Count</th><th>Cost incl. GST</th></tr>`)
	for _, c := range rows {
		p.rawf(`<tr><td>%s</td>`, c.Category)
		p.raw(fmt.Sprintf(`<td class="num">%d</td>`, c.Count))
		p.rawf(`<td class="num">%s</td></tr>`, c.TotalWithGST)
	}
	p.raw(`</table></div>`)
}

func writeDropped(p *page, dropped []DroppedItem) {
	if len(dropped) == 0 {
		return
	}
	p.raw(`<div class="card"><h3>Not priced</h3><table><tr><th>Detected as</th><th>Line</th><th>Reason</th></tr>`)
	for _, d := range dropped {
		p.rawf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`, d.Type, d.Description, d.Reason)
	}
	p.raw(`</table></div>`)
}

func ResultsPage(data ResultsData) templ.Component {
	return Layout("Estimate results", ResultsContent(data))
}
