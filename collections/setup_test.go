package collections_test

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"roadsafetyestimator/collections"
	"roadsafetyestimator/testhelpers"
)

func TestSetup_CatalogCollectionExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	col, err := app.FindCollectionByNameOrId(collections.CatalogEntries)
	if err != nil {
		t.Fatalf("collection %q not found after Setup(): %v", collections.CatalogEntries, err)
	}

	fields := []string{"sort_order", "intervention_type", "irc_code", "specification", "unit", "standard_rate", "category", "source", "created", "updated"}
	for _, f := range fields {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("catalog_entries: missing field %q", f)
		}
	}

	unitField, ok := col.Fields.GetByName("unit").(*core.SelectField)
	if !ok {
		t.Fatalf("unit field is not a SelectField")
	}
	expected := map[string]bool{"Nos": true, "m": true, "km": true, "sqm": true}
	for _, v := range unitField.Values {
		if !expected[v] {
			t.Errorf("unexpected unit value: %q", v)
		}
		delete(expected, v)
	}
	for v := range expected {
		t.Errorf("missing unit value: %q", v)
	}
}

func TestSetup_CatalogIsPubliclyReadable(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId(collections.CatalogEntries)

	if col.ListRule == nil || *col.ListRule != "" {
		t.Errorf("expected public list rule, got %v", col.ListRule)
	}
	if col.ViewRule == nil || *col.ViewRule != "" {
		t.Errorf("expected public view rule, got %v", col.ViewRule)
	}
	if col.CreateRule != nil || col.UpdateRule != nil || col.DeleteRule != nil {
		t.Error("expected write rules to be superuser-only")
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	col, _ := app.FindCollectionByNameOrId(collections.CatalogEntries)
	id := col.Id

	if err := collections.Setup(app); err != nil {
		t.Fatalf("second Setup() error: %v", err)
	}

	col, err := app.FindCollectionByNameOrId(collections.CatalogEntries)
	if err != nil {
		t.Fatalf("collection missing after second Setup(): %v", err)
	}
	if col.Id != id {
		t.Errorf("collection id changed after second Setup(): %s -> %s", id, col.Id)
	}
}
