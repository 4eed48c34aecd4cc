package handlers

import (
	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"

	"roadsafetyestimator/config"
	"roadsafetyestimator/services"
	"roadsafetyestimator/templates"
)

// HandleIndex renders the upload form.
func HandleIndex(est *services.Estimator, report config.ReportConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		now := est.Now()
		minYear, maxYear := est.Tunables().YearBounds(now)

		var years []int
		for y := maxYear; y >= minYear; y-- {
			years = append(years, y)
		}

		var regions []templates.RegionOption
		for _, r := range services.Regions() {
			regions = append(regions, templates.RegionOption{
				Name:     r.Name,
				Factor:   r.Factor,
				Selected: r.Name == services.DefaultRegion,
			})
		}

		formats := make([]string, 0, len(services.SupportedFormats))
		for _, f := range services.SupportedFormats {
			formats = append(formats, string(f))
		}

		data := templates.IndexData{
			Regions:        regions,
			Years:          years,
			SelectedYear:   maxYear,
			Title:          report.DefaultTitle,
			ProjectName:    report.DefaultProject,
			MailConfigured: est.MailConfigured(),
			Formats:        formats,
		}

		var component templ.Component
		if isHTMX(e.Request) {
			component = templates.IndexContent(data)
		} else {
			component = templates.IndexPage(data)
		}
		return component.Render(e.Request.Context(), e.Response)
	}
}
