package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"roadsafetyestimator/config"
	"roadsafetyestimator/services"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app core.App, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

func testClock() time.Time {
	return time.Date(2025, time.March, 4, 10, 30, 0, 0, time.UTC)
}

// newTestEstimator writes reports into a per-test directory.
func newTestEstimator(t *testing.T, mailer services.Mailer) *services.Estimator {
	t.Helper()
	return services.NewEstimator(services.FallbackCatalog(), services.DefaultTunables(), mailer, t.TempDir(), zap.NewNop()).
		WithClock(testClock)
}

var testReportConfig = config.ReportConfig{
	OutputDir:      "reports",
	DefaultTitle:   "Road Safety Audit Cost Estimate",
	DefaultProject: "Highway Safety Improvement",
}

// multipartUpload builds a form POST with one file and the given fields.
func multipartUpload(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := w.CreateFormFile("audit_file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/estimate", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
