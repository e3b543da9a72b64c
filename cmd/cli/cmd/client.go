package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"veoprompt/pkg/api"
)

// Client handles API calls to the veoprompt controller.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			// Prompt generation waits on the LLM.
			Timeout: 90 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// do sends the request and decodes a 2xx JSON response into out.
func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the raw text.
func errorMessage(body []byte) string {
	var e api.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func pageQuery(limit, offset int) string {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	return "?" + q.Encode()
}

// CreateUser sends POST /users. The client token must be the admin secret.
func (c *Client) CreateUser(req api.CreateUserRequest) (*api.CreateUserResponse, error) {
	var result api.CreateUserResponse
	if err := c.do(http.MethodPost, "/users", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me sends GET /me.
func (c *Client) Me() (*api.UserResponse, error) {
	var result api.UserResponse
	if err := c.do(http.MethodGet, "/me", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateProject sends POST /projects.
func (c *Client) CreateProject(req api.CreateProjectRequest) (*api.ProjectResponse, error) {
	var result api.ProjectResponse
	if err := c.do(http.MethodPost, "/projects", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListProjects sends GET /projects.
func (c *Client) ListProjects() ([]api.ProjectResponse, error) {
	var result []api.ProjectResponse
	if err := c.do(http.MethodGet, "/projects", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GeneratePrompt sends POST /prompts/generate.
func (c *Client) GeneratePrompt(req api.GeneratePromptRequest) (*api.PromptResponse, error) {
	var result api.PromptResponse
	if err := c.do(http.MethodPost, "/prompts/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt sends GET /prompts/{id}.
func (c *Client) GetPrompt(promptID string) (*api.PromptResponse, error) {
	var result api.PromptResponse
	if err := c.do(http.MethodGet, "/prompts/"+url.PathEscape(promptID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts sends GET /prompts.
func (c *Client) ListPrompts(limit, offset int) ([]api.PromptResponse, error) {
	var result []api.PromptResponse
	if err := c.do(http.MethodGet, "/prompts"+pageQuery(limit, offset), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ApprovePrompt sends PATCH /prompts/{id}/approve.
func (c *Client) ApprovePrompt(promptID string) error {
	return c.do(http.MethodPatch, "/prompts/"+url.PathEscape(promptID)+"/approve", nil, nil)
}

// GenerateVideo sends POST /videos/generate.
func (c *Client) GenerateVideo(promptID string) (*api.VideoResponse, error) {
	var result api.VideoResponse
	if err := c.do(http.MethodPost, "/videos/generate", api.GenerateVideoRequest{PromptID: promptID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetVideo sends GET /videos/{id}.
func (c *Client) GetVideo(videoID string) (*api.VideoResponse, error) {
	var result api.VideoResponse
	if err := c.do(http.MethodGet, "/videos/"+url.PathEscape(videoID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListVideos sends GET /videos.
func (c *Client) ListVideos(limit, offset int) ([]api.VideoResponse, error) {
	var result []api.VideoResponse
	if err := c.do(http.MethodGet, "/videos"+pageQuery(limit, offset), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPerformance sends GET /performance/{video_id}.
func (c *Client) GetPerformance(videoID string) (*api.PerformanceResponse, error) {
	var result api.PerformanceResponse
	if err := c.do(http.MethodGet, "/performance/"+url.PathEscape(videoID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePerformance sends PATCH /performance/{video_id}.
func (c *Client) UpdatePerformance(videoID string, req api.UpdatePerformanceRequest) (*api.PerformanceResponse, error) {
	var result api.PerformanceResponse
	if err := c.do(http.MethodPatch, "/performance/"+url.PathEscape(videoID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SyncPerformance sends POST /performance/{video_id}/sync.
func (c *Client) SyncPerformance(videoID string) (*api.PerformanceResponse, error) {
	var result api.PerformanceResponse
	if err := c.do(http.MethodPost, "/performance/"+url.PathEscape(videoID)+"/sync", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DashboardStats sends GET /dashboard/stats.
func (c *Client) DashboardStats() (*api.DashboardStatsResponse, error) {
	var result api.DashboardStatsResponse
	if err := c.do(http.MethodGet, "/dashboard/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecentActivity sends GET /dashboard/recent.
func (c *Client) RecentActivity() (*api.RecentActivityResponse, error) {
	var result api.RecentActivityResponse
	if err := c.do(http.MethodGet, "/dashboard/recent", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
