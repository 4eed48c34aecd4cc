package templates

import (
	"fmt"

	"github.com/a-h/templ"
)

type RegionOption struct {
	Name     string
	Factor   float64
	Selected bool
}

// IndexData drives the upload form.
type IndexData struct {
	Regions        []RegionOption
	Years          []int
	SelectedYear   int
	Title          string
	ProjectName    string
	MailConfigured bool
	Formats        []string
}

func IndexContent(data IndexData) templ.Component {
	return render(func(p *page) {
		p.raw(`<div class="card"><h2>Estimate intervention costs</h2>`)
		p.raw(`<p class="muted">Upload a road safety audit report. Supported formats: `)
		for i, f := range data.Formats {
			if i > 0 {
				p.raw(", ")
			}
			p.text("." + f)
		}
		p.raw(`.</p>`)

		p.raw(`<form method="post" action="/estimate" enctype="multipart/form-data" hx-post="/estimate" hx-target="#main" hx-encoding="multipart/form-data">`)
		p.raw(`<p><label>Audit report <input type="file" name="audit_file" required></label></p>`)

		p.raw(`<p><label>Location <select name="location">`)
		for _, r := range data.Regions {
			sel := ""
			if r.Selected {
				sel = " selected"
			}
			p.rawf(`<option value="%s"%s>%s (x%.2f)</option>`, r.Name, sel, r.Name, r.Factor)
		}
		p.raw(`</select></label></p>`)

		p.raw(`<p><label>Price year <select name="year">`)
		for _, y := range data.Years {
			sel := ""
			if y == data.SelectedYear {
				sel = " selected"
			}
			p.raw(fmt.Sprintf(`<option value="%d"%s>%d</option>`, y, sel, y))
		}
		p.raw(`</select></label></p>`)

		p.rawf(`<p><label>Report title <input type="text" name="title" value="%s" maxlength="200"></label></p>`, data.Title)
		p.rawf(`<p><label>Project name <input type="text" name="project_name" value="%s" maxlength="200"></label></p>`, data.ProjectName)
		p.raw(`<p><label>Consultant <input type="text" name="consultant" maxlength="200"></label></p>`)
		p.raw(`<p><label><input type="checkbox" name="include_citations" checked> Include IRC code references</label></p>`)
		p.raw(`<p><label><input type="checkbox" name="include_charts" checked> Include category chart</label></p>`)
		p.raw(`<p><label><input type="checkbox" name="export_excel"> Also export an Excel workbook</label></p>`)

		if data.MailConfigured {
			p.raw(`<p><label>Email report to <input type="email" name="recipient" placeholder="engineer@example.com"></label></p>`)
		} else {
			p.raw(`<p class="muted">Email delivery is disabled until SMTP credentials are configured.</p>`)
		}

		p.raw(`<p><button type="submit">Generate estimate</button></p></form></div>`)
	})
}

func IndexPage(data IndexData) templ.Component {
	return Layout("Road Safety Estimator", IndexContent(data))
}
