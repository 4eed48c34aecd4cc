package handlers

import (
	"strings"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"roadsafetyestimator/collections"
	"roadsafetyestimator/services"
	"roadsafetyestimator/templates"
)

// HandleCatalogList renders the stored reference catalog, optionally
// filtered by ?q= on type, IRC code or category.
func HandleCatalogList(app core.App, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		searchQuery := strings.TrimSpace(e.Request.URL.Query().Get("q"))

		filter := "id != ''"
		params := map[string]any{}
		if searchQuery != "" {
			filter = "intervention_type ~ {:q} || irc_code ~ {:q} || category ~ {:q}"
			params["q"] = searchQuery
		}

		records, err := app.FindRecordsByFilter(collections.CatalogEntries, filter, "sort_order", 0, 0, params)
		if err != nil {
			logger.Warn("catalog_list: could not query catalog", zap.Error(err))
			records = nil
		}

		data := templates.CatalogData{SearchQuery: searchQuery}
		for _, rec := range records {
			data.Source = rec.GetString("source")
			data.Rows = append(data.Rows, templates.CatalogRow{
				InterventionType: rec.GetString("intervention_type"),
				IRCCode:          rec.GetString("irc_code"),
				Specification:    rec.GetString("specification"),
				Unit:             rec.GetString("unit"),
				Rate:             services.FormatMoney(decimal.NewFromFloat(rec.GetFloat("standard_rate"))),
				Category:         rec.GetString("category"),
			})
		}
		data.TotalCount = len(data.Rows)

		var component templ.Component
		if isHTMX(e.Request) {
			component = templates.CatalogContent(data)
		} else {
			component = templates.CatalogPage(data)
		}
		return component.Render(e.Request.Context(), e.Response)
	}
}
