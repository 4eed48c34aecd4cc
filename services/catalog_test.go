package services

import (
	"os"
	"path/filepath"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestFallbackCatalog_EntriesSatisfyInvariants(t *testing.T) {
	cat := FallbackCatalog()

	assert.Equal(t, FallbackSource, cat.Source())
	assert.Equal(t, 15, cat.Len())
	for _, e := range cat.Entries() {
		assert.NoError(t, e.Validate(), e.InterventionType)
	}
}

func TestCatalogEntry_Validate(t *testing.T) {
	valid := FallbackCatalog().Entries()[0]

	tests := []struct {
		name   string
		mutate func(e *CatalogEntry)
		field  string
	}{
		{"blank type", func(e *CatalogEntry) { e.InterventionType = "   " }, "InterventionType"},
		{"missing code", func(e *CatalogEntry) { e.IRCCode = "" }, "IRCCode"},
		{"unknown unit", func(e *CatalogEntry) { e.Unit = "litre" }, "Unit"},
		{"missing unit", func(e *CatalogEntry) { e.Unit = "" }, "Unit"},
		{"zero rate", func(e *CatalogEntry) { e.BaseRate = decimal.Zero }, "BaseRate"},
		{"negative rate", func(e *CatalogEntry) { e.BaseRate = decimal.NewFromInt(-5) }, "BaseRate"},
		{"missing category", func(e *CatalogEntry) { e.Category = "" }, "Category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)

			err := e.Validate()

			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs, tt.field)
			assert.Len(t, verrs, 1)
		})
	}

	alias := valid
	alias.Unit = "metres"
	assert.NoError(t, alias.Validate(), "unit spellings accepted by ParseUnit are valid")
}

func TestCatalog_EntriesReturnsCopy(t *testing.T) {
	cat := FallbackCatalog()
	entries := cat.Entries()
	entries[0].InterventionType = "Changed"

	assert.Equal(t, "Rumble Strip", cat.Entries()[0].InterventionType)
}

func TestCatalog_Lookup(t *testing.T) {
	cat := FallbackCatalog()

	e, ok := cat.Lookup("  speed HUMP ")
	require.True(t, ok)
	assert.Equal(t, "IRC:99-2018", e.IRCCode)
	assert.True(t, decimal.NewFromInt(25000).Equal(e.BaseRate))

	_, ok = cat.Lookup("Speedbump")
	assert.False(t, ok)
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
		ok   bool
	}{
		{"Nos", UnitCount, true},
		{" each ", UnitCount, true},
		{"RM", UnitMeters, true},
		{"metres", UnitMeters, true},
		{"Km", UnitKilometers, true},
		{"Sq.m", UnitSquareMeters, true},
		{"m2", UnitSquareMeters, true},
		{"litre", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseUnit(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadCatalog_FallsBackWhenNothingReadable(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a workbook"), 0o644))

	cat := LoadCatalog([]string{filepath.Join(dir, "missing.xlsx"), bad}, zap.NewNop())

	require.NotNil(t, cat)
	assert.Equal(t, FallbackSource, cat.Source())
	assert.Equal(t, FallbackCatalog().Entries(), cat.Entries())
}

func TestLoadCatalog_CSVSkipsInvalidRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	csv := "Intervention Type,IRC Code,Specification,Unit,Standard Rate,Category\n" +
		"Solar Blinker,IRC:SP:55-2014,Solar powered amber blinker,Nos,\"12,500\",Signage\n" +
		"Bad Rate,IRC:1,Spec,Nos,abc,Signage\n" +
		"Bad Unit,IRC:1,Spec,litre,100,Signage\n" +
		"Zero Rate,IRC:1,Spec,Nos,0,Signage\n" +
		",IRC:1,Spec,Nos,10,Signage\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cat := LoadCatalog([]string{path}, zap.NewNop())

	assert.Equal(t, path, cat.Source())
	require.Equal(t, 1, cat.Len())
	e := cat.Entries()[0]
	assert.Equal(t, "Solar Blinker", e.InterventionType)
	assert.Equal(t, UnitCount, e.Unit)
	assert.True(t, decimal.NewFromInt(12500).Equal(e.BaseRate))
}

func TestReadCatalogFile_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GPT_Input_DB.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Category", "Intervention Type", "IRC Code", "Specification", "Unit", "Standard Rate"},
		{"Lighting", "Street Light", "IRC:SP:21-2009", "LED 150W", "nos", 16000},
		{"Road Marking", "Road Marking", "IRC:35-2015", "Thermoplastic", "sqm", 375.5},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cat, err := ReadCatalogFile(path, zap.NewNop())

	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())
	e, ok := cat.Lookup("road marking")
	require.True(t, ok)
	assert.Equal(t, UnitSquareMeters, e.Unit)
	assert.Equal(t, "375.5", e.BaseRate.String())
	assert.Equal(t, "Road Marking", e.Category)
}

func TestReadCatalogFile_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("Intervention Type,Unit\nSignage,Nos\n"), 0o644))

	_, err := ReadCatalogFile(path, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "irc code")
}

func TestReadCatalogFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	_, err := ReadCatalogFile(path, zap.NewNop())

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCatalogPaths(t *testing.T) {
	assert.Equal(t,
		[]string{filepath.Join(".", "db.xlsx"), filepath.Join("..", "db.xlsx")},
		CatalogPaths("db.xlsx", []string{".", ".."}),
	)
	abs := filepath.Join(string(filepath.Separator), "srv", "db.xlsx")
	assert.Equal(t, []string{abs}, CatalogPaths(abs, []string{".", ".."}))
}
