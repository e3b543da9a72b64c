package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

func ownedPromptStore(owner uuid.UUID) (*mockStore, *store.Prompt) {
	req := store.VideoRequest{Niche: "coffee", Platform: "instagram", VideoLength: 20, Tone: "cinematic", Goal: "engagement"}
	p := &store.Prompt{ID: uuid.New(), UserID: owner, Request: req, Status: store.PromptStatusApproved}
	return &mockStore{getPromptResp: p}, p
}

func TestGenerateVideo_Success(t *testing.T) {
	owner := uuid.New()
	mock, p := ownedPromptStore(owner)
	h := newHandlers(mock)

	body := `{"prompt_id":"` + p.ID.String() + `"}`
	rr := httptest.NewRecorder()
	h.GenerateVideo(rr, asUser(httptest.NewRequest(http.MethodPost, "/videos/generate", bytes.NewBufferString(body)), owner))

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}

	var resp api.VideoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Status != "queued" || resp.Duration != 20 || resp.Resolution != VideoResolution || resp.Platform != "instagram" {
		t.Errorf("unexpected video %+v", resp)
	}
	if resp.InstagramPostID != nil {
		t.Error("new video should not have a post id")
	}

	if mock.updatedPromptState != store.PromptStatusGenerating {
		t.Errorf("prompt status = %s, want generating", mock.updatedPromptState)
	}
	if mock.updatePromptTx == nil {
		t.Error("prompt status must be updated inside the transaction")
	}
	if !mock.tx.committed {
		t.Error("expected transaction to be committed")
	}

	var payload store.QueuePayload
	if err := json.Unmarshal(mock.enqueuedPayload, &payload); err != nil {
		t.Fatalf("invalid queue payload: %v", err)
	}
	if payload.VideoID.String() != resp.ID || payload.PromptID != p.ID || payload.UserID != owner {
		t.Errorf("unexpected payload ids %+v", payload)
	}
	if payload.Context.Niche != "coffee" || payload.Context.VideoLength != 20 {
		t.Errorf("payload context not copied from prompt: %+v", payload.Context)
	}
}

func TestGenerateVideo_Failures(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name           string
		body           func(p *store.Prompt) string
		caller         uuid.UUID
		mockSetup      func(*mockStore)
		expectedStatus int
		wantRollback   bool
	}{
		{
			name:           "invalid json",
			body:           func(*store.Prompt) string { return `{` },
			caller:         owner,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid prompt id",
			body:           func(*store.Prompt) string { return `{"prompt_id":"x"}` },
			caller:         owner,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "prompt of another user",
			body:           func(p *store.Prompt) string { return `{"prompt_id":"` + p.ID.String() + `"}` },
			caller:         uuid.New(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "begin tx fails",
			body:           func(p *store.Prompt) string { return `{"prompt_id":"` + p.ID.String() + `"}` },
			caller:         owner,
			mockSetup:      func(m *mockStore) { m.beginTxErr = errors.New("pool exhausted") },
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "create video fails",
			body:           func(p *store.Prompt) string { return `{"prompt_id":"` + p.ID.String() + `"}` },
			caller:         owner,
			mockSetup:      func(m *mockStore) { m.createVideoErr = errors.New("insert failed") },
			expectedStatus: http.StatusInternalServerError,
			wantRollback:   true,
		},
		{
			name:           "enqueue fails",
			body:           func(p *store.Prompt) string { return `{"prompt_id":"` + p.ID.String() + `"}` },
			caller:         owner,
			mockSetup:      func(m *mockStore) { m.enqueueErr = errors.New("queue insert failed") },
			expectedStatus: http.StatusInternalServerError,
			wantRollback:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, p := ownedPromptStore(owner)
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			h := newHandlers(mock)

			rr := httptest.NewRecorder()
			h.GenerateVideo(rr, asUser(httptest.NewRequest(http.MethodPost, "/videos/generate", bytes.NewBufferString(tt.body(p))), tt.caller))

			if rr.Code != tt.expectedStatus {
				t.Errorf("got status %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.wantRollback && (mock.tx == nil || !mock.tx.rolledBack) {
				t.Error("expected transaction rollback")
			}
		})
	}
}

func TestGetVideo(t *testing.T) {
	owner := uuid.New()
	postID := "1789"
	video := &store.VideoJob{ID: uuid.New(), UserID: owner, Status: store.VideoStatusCompleted, SocialPostID: &postID, Hashtags: []string{"#coffee"}}

	tests := []struct {
		name           string
		caller         uuid.UUID
		expectedStatus int
	}{
		{"owner", owner, http.StatusOK},
		{"other user", uuid.New(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlers(&mockStore{getVideoResp: video})

			req := httptest.NewRequest(http.MethodGet, "/videos/"+video.ID.String(), nil)
			req.SetPathValue("id", video.ID.String())
			rr := httptest.NewRecorder()
			h.GetVideo(rr, asUser(req, tt.caller))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("got status %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var raw map[string]any
			json.Unmarshal(rr.Body.Bytes(), &raw)
			if raw["instagram_post_id"] != postID {
				t.Errorf("instagram_post_id = %v, want %s", raw["instagram_post_id"], postID)
			}
		})
	}
}

func TestListVideos(t *testing.T) {
	mock := &mockStore{listVideosResp: []store.VideoJob{{ID: uuid.New()}, {ID: uuid.New()}}}
	h := newHandlers(mock)

	rr := httptest.NewRecorder()
	h.ListVideos(rr, asUser(httptest.NewRequest(http.MethodGet, "/videos?limit=2", nil), uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var resp []api.VideoResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp) != 2 || mock.capturedLimit != 2 {
		t.Errorf("got %d videos with limit %d", len(resp), mock.capturedLimit)
	}
}
