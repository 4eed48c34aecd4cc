package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"roadsafetyestimator/services"
)

// CatalogEntries is the collection mirroring the loaded reference catalog.
const CatalogEntries = "catalog_entries"

// Setup programmatically creates/ensures the catalog_entries collection
// exists. The catalog is readable by anyone through the REST API; writes
// are left to superusers.
func Setup(app core.App) error {
	_, err := ensureCollection(app, CatalogEntries, func(c *core.Collection) {
		c.ListRule = types.Pointer("")
		c.ViewRule = types.Pointer("")

		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: false, OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "intervention_type", Required: true, Max: 200})
		c.Fields.Add(&core.TextField{Name: "irc_code", Required: true, Max: 100})
		c.Fields.Add(&core.TextField{Name: "specification", Required: false, Max: 1000})
		c.Fields.Add(&core.SelectField{
			Name:      "unit",
			Required:  true,
			Values:    unitValues(),
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "standard_rate", Required: true})
		c.Fields.Add(&core.TextField{Name: "category", Required: true, Max: 200})
		c.Fields.Add(&core.TextField{Name: "source", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})

		c.AddIndex("idx_catalog_entries_type", false, "intervention_type", "")
	})
	return err
}

func unitValues() []string {
	return []string{
		string(services.UnitCount),
		string(services.UnitMeters),
		string(services.UnitKilometers),
		string(services.UnitSquareMeters),
	}
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) (*core.Collection, error) {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		return existing, nil
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	app.Logger().Info("created collection", "name", name, "id", collection.Id)
	return collection, nil
}
