package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"roadsafetyestimator/testhelpers"
)

func TestRequestLogMiddleware_AssignsID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	core, logs := observer.New(zap.DebugLevel)
	mw := RequestLogMiddleware(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	rec := httptest.NewRecorder()

	if err := mw(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a uuid request id, got %q", id)
	}
	entries := logs.FilterMessage("request handled").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/catalog" {
		t.Errorf("unexpected log fields %v", entries[0].ContextMap())
	}
}

func TestRequestLogMiddleware_ReusesValidID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	mw := RequestLogMiddleware(zap.NewNop())
	incoming := uuid.NewString()

	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{"valid uuid", incoming, true},
		{"garbage", "not-an-id", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			rec := httptest.NewRecorder()

			if err := mw(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}
			got := rec.Header().Get(RequestIDHeader)
			if (got == tt.header) != tt.reuse {
				t.Errorf("request id = %q, incoming %q, reuse %v", got, tt.header, tt.reuse)
			}
		})
	}
}
