package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"roadsafetyestimator/testhelpers"
)

func TestSanitizeReportName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"road_safety_report_20250304_103000.pdf", true},
		{"road_safety_report_20250304_103000.xlsx", true},
		{"REPORT.PDF", true},
		{"", false},
		{"../secret.pdf", false},
		{"sub/report.pdf", false},
		{`sub\report.pdf`, false},
		{".hidden.pdf", false},
		{"notes.txt", false},
		{"report", false},
	}
	for _, tt := range tests {
		_, ok := sanitizeReportName(tt.name)
		if ok != tt.ok {
			t.Errorf("sanitizeReportName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}

func TestHandleReportDownload(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	dir := t.TempDir()
	const name = "road_safety_report_20250304_103000.pdf"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	handler := HandleReportDownload(dir, zap.NewNop())

	tests := []struct {
		name       string
		file       string
		wantStatus int
	}{
		{"existing report", name, http.StatusOK},
		{"missing report", "road_safety_report_20200101_000000.pdf", http.StatusNotFound},
		{"traversal", "../" + name, http.StatusBadRequest},
		{"wrong extension", "road_safety_report.txt", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/reports/x", nil)
			req.SetPathValue("name", tt.file)
			rec := httptest.NewRecorder()

			if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
				t.Errorf("Content-Type = %q", ct)
			}
			if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="`+name+`"` {
				t.Errorf("Content-Disposition = %q", cd)
			}
			if rec.Body.String() != "%PDF-1.4 test" {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		})
	}
}
