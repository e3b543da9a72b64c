package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"veoprompt/pkg/api"
)

func TestHealthz(t *testing.T) {
	h := newHandlers(&mockStore{pingErr: errors.New("db down")})

	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Liveness never looks at the database.
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestReadyz(t *testing.T) {
	depth := int64(4)

	tests := []struct {
		name       string
		store      *mockStore
		wantStatus int
		wantBody   string
		wantChecks map[string]string
		wantDepth  *int64
	}{
		{
			name:       "ready",
			store:      &mockStore{countResp: 4},
			wantStatus: http.StatusOK,
			wantBody:   "ready",
			wantChecks: map[string]string{"database": "ok", "queue": "ok"},
			wantDepth:  &depth,
		},
		{
			name:       "database down",
			store:      &mockStore{pingErr: errors.New("db down")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
			wantChecks: map[string]string{"database": "down"},
		},
		{
			name:       "queue unreadable",
			store:      &mockStore{countErr: errors.New("relation does not exist")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
			wantChecks: map[string]string{"database": "ok", "queue": "down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlers(tt.store)

			rr := httptest.NewRecorder()
			h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", rr.Code, tt.wantStatus)
			}

			var resp api.HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantBody)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, resp.Checks[k], v)
				}
			}
			switch {
			case tt.wantDepth == nil && resp.QueueDepth != nil:
				t.Errorf("unexpected queue depth %d", *resp.QueueDepth)
			case tt.wantDepth != nil && (resp.QueueDepth == nil || *resp.QueueDepth != *tt.wantDepth):
				t.Errorf("queue depth = %v, want %d", resp.QueueDepth, *tt.wantDepth)
			}
		})
	}
}
