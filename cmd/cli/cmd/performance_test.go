package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"veoprompt/pkg/api"
)

func TestPerformanceSetCommand_SendsOnlyChangedFields(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/performance/video-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if len(body) != 2 || body["views"] != float64(1200) || body["likes"] != float64(85) {
			t.Errorf("unexpected body %v", body)
		}

		json.NewEncoder(w).Encode(api.PerformanceResponse{VideoID: "video-1", Views: 1200, Likes: 85})
	}))
	defer server.Close()

	output := execute(t, server.URL, "performance", "set", "video-1", "--views", "1200", "--likes", "85")

	if !strings.Contains(output, "1200") || !strings.Contains(output, "85") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestPerformanceSyncCommand_NotPublished(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/performance/video-1/sync" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Video has not been published"})
	}))
	defer server.Close()

	output := execute(t, server.URL, "perf", "sync", "video-1")

	if !strings.Contains(output, "Error (409): Video has not been published") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestDashboardCommand(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dashboard/stats":
			json.NewEncoder(w).Encode(api.DashboardStatsResponse{TotalPrompts: 4, TotalVideos: 3, VideosCompleted: 2, TotalViews: 5400})
		case "/dashboard/recent":
			json.NewEncoder(w).Encode(api.RecentActivityResponse{
				RecentPrompts: []api.PromptSummary{{ID: "prompt-1", Niche: "coffee", Status: "approved"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	output := execute(t, server.URL, "dashboard")

	for _, want := range []string{"5400", "Recent prompts", "prompt-1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}
