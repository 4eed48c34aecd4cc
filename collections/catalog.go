package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"roadsafetyestimator/services"
)

// SyncCatalog makes catalog_entries mirror cat. It is safe to call on
// every startup: when the stored rows already come from the same source
// and have the same count, nothing is written. Otherwise all rows are
// replaced inside one transaction.
func SyncCatalog(app core.App, cat *services.Catalog) (int, error) {
	col, err := app.FindCollectionByNameOrId(CatalogEntries)
	if err != nil {
		return 0, fmt.Errorf("sync catalog: could not find %s collection: %w", CatalogEntries, err)
	}

	existing, err := app.FindAllRecords(col)
	if err != nil {
		return 0, fmt.Errorf("sync catalog: could not query %s: %w", CatalogEntries, err)
	}
	if len(existing) == cat.Len() && sameSource(existing, cat.Source()) {
		return 0, nil
	}

	entries := cat.Entries()
	err = app.RunInTransaction(func(txApp core.App) error {
		for _, r := range existing {
			if err := txApp.Delete(r); err != nil {
				return fmt.Errorf("delete %s: %w", r.Id, err)
			}
		}
		for i, e := range entries {
			r := core.NewRecord(col)
			r.Set("sort_order", i+1)
			r.Set("intervention_type", e.InterventionType)
			r.Set("irc_code", e.IRCCode)
			r.Set("specification", e.Specification)
			r.Set("unit", string(e.Unit))
			r.Set("standard_rate", e.BaseRate.InexactFloat64())
			r.Set("category", e.Category)
			r.Set("source", cat.Source())
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("save %q: %w", e.InterventionType, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sync catalog: %w", err)
	}

	app.Logger().Info("catalog synced", "collection", CatalogEntries, "rows", len(entries), "source", cat.Source())
	return len(entries), nil
}

func sameSource(records []*core.Record, source string) bool {
	for _, r := range records {
		if r.GetString("source") != source {
			return false
		}
	}
	return true
}

// StoredCatalog reads catalog_entries back into a catalog, in sort order.
// Rows that fail entry validation are skipped.
func StoredCatalog(app core.App) (*services.Catalog, error) {
	records, err := app.FindRecordsByFilter(CatalogEntries, "id != ''", "sort_order", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", CatalogEntries, err)
	}

	source := ""
	entries := make([]services.CatalogEntry, 0, len(records))
	for _, r := range records {
		unit, ok := services.ParseUnit(r.GetString("unit"))
		if !ok {
			continue
		}
		e := services.CatalogEntry{
			InterventionType: r.GetString("intervention_type"),
			IRCCode:          r.GetString("irc_code"),
			Specification:    r.GetString("specification"),
			Unit:             unit,
			BaseRate:         decimal.NewFromFloat(r.GetFloat("standard_rate")),
			Category:         r.GetString("category"),
		}
		if e.Validate() != nil {
			continue
		}
		entries = append(entries, e)
		source = r.GetString("source")
	}
	return services.NewCatalog(source, entries), nil
}

// ResolveCatalog decides which catalog the server prices against. A catalog
// read from a file is mirrored into the collection and returned. When only
// the built-in fallback could be loaded, a previously imported catalog still
// stored in the collection wins over it.
func ResolveCatalog(app core.App, loaded *services.Catalog) (*services.Catalog, error) {
	if loaded.Source() == services.FallbackSource {
		stored, err := StoredCatalog(app)
		if err != nil {
			return loaded, err
		}
		if stored.Len() > 0 && stored.Source() != services.FallbackSource {
			app.Logger().Info("using stored catalog", "source", stored.Source(), "rows", stored.Len())
			return stored, nil
		}
	}

	if _, err := SyncCatalog(app, loaded); err != nil {
		return loaded, err
	}
	return loaded, nil
}
