package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockskills/collabzone/internal/http/handlers"
)

type fakeRepairer struct {
	gotBatch int
	repairFn func(ctx context.Context, batch int) (int, error)
}

func (f *fakeRepairer) RepairFormattedIDs(ctx context.Context, batch int) (int, error) {
	f.gotBatch = batch
	if f.repairFn != nil {
		return f.repairFn(ctx, batch)
	}
	return 0, nil
}

func TestRepairFormattedIDsHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		repairFn       func(ctx context.Context, batch int) (int, error)
		wantStatusCode int
		wantBatch      int
	}{
		{
			name:           "default batch",
			url:            "/admin/registrations/repair",
			repairFn:       func(ctx context.Context, batch int) (int, error) { return 3, nil },
			wantStatusCode: http.StatusOK,
			wantBatch:      50,
		},
		{
			name:           "explicit batch",
			url:            "/admin/registrations/repair?batch=10",
			wantStatusCode: http.StatusOK,
			wantBatch:      10,
		},
		{
			name:           "invalid batch",
			url:            "/admin/registrations/repair?batch=-1",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "repair error",
			url:            "/admin/registrations/repair",
			repairFn:       func(ctx context.Context, batch int) (int, error) { return 1, errors.New("db error") },
			wantStatusCode: http.StatusInternalServerError,
			wantBatch:      50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &fakeRepairer{repairFn: tt.repairFn}
			h := handlers.NewAdminHandler(rep, 50)
			r := setupRouter(http.MethodPost, "/admin/registrations/repair", h.RepairFormattedIDs)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if rep.gotBatch != tt.wantBatch {
				t.Fatalf("batch = %d, want %d", rep.gotBatch, tt.wantBatch)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]handlers.PingFunc
		path           string
		wantStatusCode int
	}{
		{
			name:           "liveness ignores checks",
			checks:         map[string]handlers.PingFunc{"store": func(context.Context) error { return errors.New("down") }},
			path:           "/healthz",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "ready",
			checks:         map[string]handlers.PingFunc{"store": func(context.Context) error { return nil }},
			path:           "/readyz",
			wantStatusCode: http.StatusOK,
		},
		{
			name: "store down",
			checks: map[string]handlers.PingFunc{
				"store": func(context.Context) error { return errors.New("refused") },
				"redis": func(context.Context) error { return nil },
			},
			path:           "/readyz",
			wantStatusCode: http.StatusServiceUnavailable,
		},
		{
			name:           "no checks",
			path:           "/readyz",
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)

			r := setupRouter(http.MethodGet, "/healthz", h.Healthz)
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
