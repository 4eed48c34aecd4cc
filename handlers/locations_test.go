package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"roadsafetyestimator/services"
	"roadsafetyestimator/testhelpers"
)

func TestHandleLocations(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	rec := httptest.NewRecorder()

	if err := HandleLocations()(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var got locationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Default != services.DefaultRegion {
		t.Errorf("default = %q, want %q", got.Default, services.DefaultRegion)
	}
	if len(got.Regions) != len(services.Regions()) {
		t.Errorf("got %d regions, want %d", len(got.Regions), len(services.Regions()))
	}
	for _, r := range got.Regions {
		if r.Name == "Kerala" && r.Factor != 1.08 {
			t.Errorf("Kerala factor = %v, want 1.08", r.Factor)
		}
	}
}
