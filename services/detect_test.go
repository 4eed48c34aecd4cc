package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAudit = `ROAD SAFETY AUDIT - NH-44 SECTION
Observations
Install rumble strip at km 10.5, 25 m
Provide speed hump near school at chainage 12+300, 2 nos
Road marking faded between Km 14 and 15, 120 sqm
Replace damaged guard rail at km 18.2, 60 meters
Install rumble strip at km 10.5, 25 m
Provide solar blinker at ch 20+100
Short
Chevron sign missing on curve
`

func TestDetect_SampleAudit(t *testing.T) {
	d := NewDetector(DefaultTunables())

	got := d.Detect(sampleAudit)

	require.Len(t, got, 6)

	want := []CandidateIntervention{
		{Type: "Rumble Strip", Location: "Km 10.5", Chainage: "10.5", Quantity: 25, Unit: "m"},
		{Type: "Speed Hump", Location: "12+300", Chainage: "12+300", Quantity: 2, Unit: "Nos"},
		{Type: "Road Marking", Location: "Km 14", Chainage: "14", Quantity: 120, Unit: "sqm"},
		{Type: "Guard Rail", Location: "Km 18.2", Chainage: "18.2", Quantity: 60, Unit: "m"},
		{Type: "Solar Blinker", Location: "20+100", Chainage: "20+100", Quantity: 1, Unit: "Nos"},
		{Type: "Chevron Sign", Location: DefaultLocation, Chainage: "", Quantity: 1, Unit: "Nos"},
	}
	for i, w := range want {
		assert.Equal(t, w.Type, got[i].Type, "type #%d", i)
		assert.Equal(t, w.Location, got[i].Location, "location #%d", i)
		assert.Equal(t, w.Chainage, got[i].Chainage, "chainage #%d", i)
		assert.Equal(t, w.Quantity, got[i].Quantity, "quantity #%d", i)
		assert.Equal(t, w.Unit, got[i].Unit, "unit #%d", i)
	}
}

func TestDetect_RumbleStripLine(t *testing.T) {
	got := NewDetector(DefaultTunables()).Detect("Install rumble strip at km 10.5, 25 m")

	require.Len(t, got, 1)
	assert.Equal(t, "Rumble Strip", got[0].Type)
	assert.Equal(t, "Km 10.5", got[0].Location)
	assert.Equal(t, 25.0, got[0].Quantity)
	assert.Equal(t, "m", got[0].Unit)
	assert.Equal(t, "Install rumble strip at km 10.5, 25 m", got[0].Description)
}

func TestDetect_FirstKeywordWins(t *testing.T) {
	// "speed hump" comes before "signage" in the vocabulary.
	got := NewDetector(DefaultTunables()).Detect("Signage and speed hump required at km 3")

	require.Len(t, got, 1)
	assert.Equal(t, "Speed Hump", got[0].Type)
}

func TestDetect_ShortLinesIgnored(t *testing.T) {
	d := NewDetector(DefaultTunables())

	assert.Empty(t, d.Detect("signage"))
	assert.Empty(t, d.Detect("  drainage  "))
	assert.Empty(t, d.Detect("drainage.."), "a line of exactly ten characters is not eligible")
	assert.Len(t, d.Detect("drainage..."), 1)
}

func TestDetect_DeduplicatesCaseInsensitive(t *testing.T) {
	text := "Install Reflector at km 5\n  install reflector AT KM 5  \nInstall reflector at km 6"

	got := NewDetector(DefaultTunables()).Detect(text)

	require.Len(t, got, 2)
	assert.Equal(t, "Install Reflector at km 5", got[0].Description)
	assert.Equal(t, "Install reflector at km 6", got[1].Description)
}

func TestDetect_Idempotent(t *testing.T) {
	d := NewDetector(DefaultTunables())
	first := d.Detect(sampleAudit)

	var lines []string
	for _, c := range first {
		lines = append(lines, c.Description)
	}
	second := d.Detect(strings.Join(lines, "\n"))

	assert.Equal(t, first, second)
}

func TestDetect_QuantityAlwaysPositive(t *testing.T) {
	text := strings.Join([]string{
		"Install 0 nos delineator on median",
		"Street light 0.0 m spacing issue",
		"Warning sign required, qty unknown",
		"Crash barrier 0 m then 40 m further",
	}, "\n")

	for _, c := range NewDetector(DefaultTunables()).Detect(text) {
		assert.Greater(t, c.Quantity, 0.0, c.Description)
	}
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		line   string
		expect string
	}{
		{"Signage at km 12", "Km 12"},
		{"Signage near KM12.75 junction", "Km 12.75"},
		{"Signage at chainage 4+250", "4+250"},
		{"Signage at Ch. 7+100", "7+100"},
		{"Signage at ch 900", "900"},
		{"Signage near the school", DefaultLocation},
		{"Signage 10km ahead", DefaultLocation},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expect, extractLocation(tt.line))
		})
	}
}

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		line string
		qty  float64
		unit Unit
	}{
		{"install 4 nos signs", 4, UnitCount},
		{"install 3 numbers", 3, UnitCount},
		{"paint 12.5 metres", 12.5, UnitMeters},
		{"barrier for 2 km", 2, UnitKilometers},
		{"marking of 40 sqm", 40, UnitSquareMeters},
		{"marking of 40 sq.m", 40, UnitSquareMeters},
		{"5 nos and 30 m", 5, UnitCount},
		{"no numbers here", 1, UnitCount},
		{"measured in square meter", 1, UnitSquareMeters},
		{"one kilometer stretch", 1, UnitKilometers},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			qty, unit := extractQuantity(tt.line)
			assert.Equal(t, tt.qty, qty)
			assert.Equal(t, tt.unit, unit)
		})
	}
}
