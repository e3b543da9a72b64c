package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"veoprompt/internal/auth"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeErr       error
		expectedStatus int
	}{
		{"success", `{"name":"Ada","email":"ada@example.com"}`, nil, http.StatusCreated},
		{"invalid json", `{bad`, nil, http.StatusBadRequest},
		{"missing name", `{"email":"ada@example.com"}`, nil, http.StatusBadRequest},
		{"invalid email", `{"name":"Ada","email":"not-an-email"}`, nil, http.StatusBadRequest},
		{"negative rate limit", `{"name":"Ada","email":"ada@example.com","rate_limit":-1}`, nil, http.StatusBadRequest},
		{"store failure", `{"name":"Ada","email":"ada@example.com"}`, errors.New("duplicate"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{createUserErr: tt.storeErr}
			h := newHandlers(mock)

			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			h.CreateUser(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("got status %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp api.CreateUserResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response: %v", err)
			}
			if !strings.HasPrefix(resp.APIKey, auth.KeyPrefix) {
				t.Errorf("api key %q missing prefix", resp.APIKey)
			}
			if mock.createdUserHash != auth.HashKey(resp.APIKey) {
				t.Error("store should receive the hash of the returned key")
			}
			if resp.ID != mock.createdUser.ID.String() {
				t.Errorf("response id %s does not match stored user", resp.ID)
			}
		})
	}
}

func TestMe(t *testing.T) {
	h := newHandlers(&mockStore{})
	userID := uuid.New()

	rr := httptest.NewRecorder()
	h.Me(rr, asUser(httptest.NewRequest(http.MethodGet, "/me", nil), userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var resp api.UserResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.ID != userID.String() {
		t.Errorf("got id %s, want %s", resp.ID, userID)
	}

	rr = httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d without user, want 401", rr.Code)
	}
}
