package templates

import (
	"github.com/a-h/templ"
)

type CatalogRow struct {
	InterventionType string
	IRCCode          string
	Specification    string
	Unit             string
	Rate             string
	Category         string
}

type CatalogData struct {
	Source      string
	Rows        []CatalogRow
	SearchQuery string
	TotalCount  int
}

func CatalogContent(data CatalogData) templ.Component {
	return render(func(p *page) {
		p.raw(`<div class="card"><h2>Intervention catalog</h2>`)
		p.rawf(`<p class="muted">Source: %s</p>`, data.Source)
		p.rawf(`<form method="get" action="/catalog" hx-get="/catalog" hx-target="#main"><input type="search" name="q" value="%s" placeholder="Search type, code or category"> <button type="submit">Search</button></form>`, data.SearchQuery)

		if len(data.Rows) == 0 {
			if data.SearchQuery != "" {
				p.rawf(`<p>No catalog entries match "%s".</p></div>`, data.SearchQuery)
			} else {
				p.raw(`<p>The catalog is empty.</p></div>`)
			}
			return
		}

		p.raw(`<table><tr><th>Intervention</th><th>IRC Code</th><th>Specification</th><th>Unit</th><th>Rate</th><th>Category</th></tr>`)
		for _, r := range data.Rows {
			p.rawf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="num">%s</td><td>%s</td></tr>`,
				r.InterventionType, r.IRCCode, r.Specification, r.Unit, r.Rate, r.Category)
		}
		p.raw(`</table></div>`)
	})
}

func CatalogPage(data CatalogData) templ.Component {
	return Layout("Intervention catalog", CatalogContent(data))
}
