// Package social publishes finished videos as Instagram Reels through the
// Graph API, or simulates the same contract in mock mode.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"veoprompt/internal/caption"
)

const (
	DefaultGraphURL = "https://graph.facebook.com/v18.0"

	// StatusFinished is the container status_code that means ready to publish.
	StatusFinished = "FINISHED"
	// StatusError is the container status_code for a failed upload.
	StatusError = "ERROR"
)

// insightMetrics are requested from the insights endpoint in live mode.
var insightMetrics = []string{"views", "likes", "comments", "shares", "saved", "reach"}

// Config configures a Publisher.
type Config struct {
	AccessToken       string
	BusinessAccountID string
	GraphURL          string
	// RateLimit is the number of Graph calls per second; zero disables limiting.
	RateLimit  float64
	MockDelay  time.Duration
	HTTPClient *http.Client
}

// ContainerStatus is the readiness of a media container.
type ContainerStatus struct {
	StatusCode string
}

// PublishResult is the outcome of PublishReel. Error is set when Success is false.
type PublishResult struct {
	Success  bool
	PostID   string
	PostURL  string
	PostedAt time.Time
	Error    string
}

// Publisher is a stateful Graph API client. One instance is shared by every
// job in a process; a resolved account id or a switch to mock mode is seen by
// all of them. The switch to mock mode is never undone.
type Publisher struct {
	client    *http.Client
	graphURL  string
	limiter   *rate.Limiter
	mockDelay time.Duration
	logger    *slog.Logger

	mu                sync.Mutex
	accessToken       string
	businessAccountID string
	mockMode          bool
}

// NewPublisher creates a Publisher. Without an access token it starts in mock
// mode. A token without an account id resolves the account on first use.
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	graphURL := strings.TrimRight(cfg.GraphURL, "/")
	if graphURL == "" {
		graphURL = DefaultGraphURL
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	p := &Publisher{
		client:            client,
		graphURL:          graphURL,
		limiter:           limiter,
		mockDelay:         cfg.MockDelay,
		logger:            logger.With("component", "social_publisher"),
		accessToken:       cfg.AccessToken,
		businessAccountID: cfg.BusinessAccountID,
		mockMode:          cfg.AccessToken == "",
	}
	if p.mockMode {
		p.logger.Info("no access token configured, running in mock mode")
	}
	return p
}

// MockMode reports whether the publisher simulates the Graph API.
func (p *Publisher) MockMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mockMode
}

func (p *Publisher) accountID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.businessAccountID
}

func (p *Publisher) fallbackToMock(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mockMode {
		p.mockMode = true
		p.logger.Warn("switching to mock mode", "reason", reason)
	}
}

// ResolveBusinessAccountID looks up the Instagram business account linked to
// the first page the token manages. It returns false on any failure.
func (p *Publisher) ResolveBusinessAccountID(ctx context.Context) (string, bool) {
	var pages struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := p.getJSON(ctx, "/me/accounts", nil, &pages); err != nil {
		p.logger.Error("failed to list pages", "error", err)
		return "", false
	}
	if len(pages.Data) == 0 {
		p.logger.Error("token manages no pages")
		return "", false
	}

	var page struct {
		Account struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	params := url.Values{"fields": {"instagram_business_account"}}
	if err := p.getJSON(ctx, "/"+pages.Data[0].ID, params, &page); err != nil {
		p.logger.Error("failed to fetch page", "page_id", pages.Data[0].ID, "error", err)
		return "", false
	}
	if page.Account.ID == "" {
		p.logger.Error("page has no linked business account", "page_id", pages.Data[0].ID)
		return "", false
	}

	p.mu.Lock()
	p.businessAccountID = page.Account.ID
	p.mu.Unlock()

	p.logger.Info("resolved business account", "account_id", page.Account.ID)
	return page.Account.ID, true
}

// CreateContainer stages a reel for publishing and returns the container id.
// In live mode an unresolvable account switches the publisher to mock mode
// and the call is answered in mock mode.
func (p *Publisher) CreateContainer(ctx context.Context, videoURL, captionText string, hashtags []string) (string, bool) {
	if p.MockMode() {
		id := mockID("mock_container_")
		p.logger.Info("mock container created", "container_id", id)
		return id, true
	}

	account := p.accountID()
	if account == "" {
		resolved, ok := p.ResolveBusinessAccountID(ctx)
		if !ok {
			p.fallbackToMock("business account could not be resolved")
			return p.CreateContainer(ctx, videoURL, captionText, hashtags)
		}
		account = resolved
	}

	params := url.Values{
		"media_type": {"REELS"},
		"video_url":  {videoURL},
		"caption":    {FullCaption(captionText, hashtags)},
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := p.postJSON(ctx, "/"+account+"/media", params, &created); err != nil {
		p.logger.Error("failed to create container", "account_id", account, "error", err)
		return "", false
	}
	if created.ID == "" {
		p.logger.Error("container response had no id", "account_id", account)
		return "", false
	}
	return created.ID, true
}

// GetContainerStatus performs one status query. Mock containers are always
// finished.
func (p *Publisher) GetContainerStatus(ctx context.Context, containerID string) (ContainerStatus, bool) {
	if p.MockMode() {
		return ContainerStatus{StatusCode: StatusFinished}, true
	}

	var status struct {
		StatusCode string `json:"status_code"`
	}
	params := url.Values{"fields": {"status_code"}}
	if err := p.getJSON(ctx, "/"+containerID, params, &status); err != nil {
		p.logger.Warn("failed to fetch container status", "container_id", containerID, "error", err)
		return ContainerStatus{}, false
	}
	return ContainerStatus{StatusCode: status.StatusCode}, true
}

// PublishReel publishes a ready container.
func (p *Publisher) PublishReel(ctx context.Context, containerID, captionText string, hashtags []string) PublishResult {
	if p.MockMode() {
		return p.mockPublish(ctx, containerID)
	}

	account := p.accountID()
	if account == "" {
		return PublishResult{Error: "business account id is not resolved"}
	}

	status, body, err := p.do(ctx, http.MethodPost, "/"+account+"/media_publish", url.Values{"creation_id": {containerID}})
	if err != nil {
		return PublishResult{Error: err.Error()}
	}
	if status < 200 || status > 299 {
		p.logger.Error("publish rejected", "container_id", containerID, "status", status)
		return PublishResult{Error: string(body)}
	}

	var published struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &published); err != nil || published.ID == "" {
		return PublishResult{Error: fmt.Sprintf("unexpected publish response: %s", body)}
	}

	return PublishResult{
		Success:  true,
		PostID:   published.ID,
		PostURL:  PostURL(published.ID),
		PostedAt: time.Now().UTC(),
	}
}

func (p *Publisher) mockPublish(ctx context.Context, containerID string) PublishResult {
	if p.mockDelay > 0 {
		timer := time.NewTimer(p.mockDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return PublishResult{Error: ctx.Err().Error()}
		case <-timer.C:
		}
	}

	id := mockID(mockPostPrefix)
	p.logger.Info("mock reel published", "container_id", containerID, "post_id", id)
	return PublishResult{
		Success:  true,
		PostID:   id,
		PostURL:  PostURL(id),
		PostedAt: time.Now().UTC(),
	}
}

// GetInsights returns post metrics keyed by metric name. Metrics the API does
// not report are omitted.
//
// Posts made in mock mode carry a mock id and always get mock metrics, even
// from a publisher that is live.
func (p *Publisher) GetInsights(ctx context.Context, postID string) (map[string]int64, bool) {
	if p.MockMode() || IsMockPostID(postID) {
		return map[string]int64{
			"views":    randBetween(100, 10000),
			"likes":    randBetween(10, 1000),
			"comments": randBetween(0, 200),
			"shares":   randBetween(0, 100),
			"saved":    randBetween(0, 150),
			"reach":    randBetween(80, 8000),
		}, true
	}

	var insights struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	params := url.Values{"metric": {strings.Join(insightMetrics, ",")}}
	if err := p.getJSON(ctx, "/"+postID+"/insights", params, &insights); err != nil {
		p.logger.Error("failed to fetch insights", "post_id", postID, "error", err)
		return nil, false
	}

	metrics := make(map[string]int64, len(insights.Data))
	for _, m := range insights.Data {
		if len(m.Values) > 0 {
			metrics[m.Name] = m.Values[0].Value
		}
	}
	return metrics, true
}

// FullCaption appends the normalized hashtags to the caption.
func FullCaption(captionText string, hashtags []string) string {
	tags := caption.NormalizeHashtags(hashtags)
	if len(tags) == 0 {
		return captionText
	}
	return captionText + "\n\n" + strings.Join(tags, " ")
}

// PostURL is the public URL of a reel.
func PostURL(postID string) string {
	return "https://www.instagram.com/reel/" + postID + "/"
}

const mockPostPrefix = "mock_post_"

// IsMockPostID reports whether postID was issued by a publisher in mock mode.
func IsMockPostID(postID string) bool {
	return strings.HasPrefix(postID, mockPostPrefix)
}

func mockID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func randBetween(lo, hi int64) int64 {
	return lo + rand.Int64N(hi-lo+1)
}

func (p *Publisher) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	return p.callJSON(ctx, http.MethodGet, path, params, out)
}

func (p *Publisher) postJSON(ctx context.Context, path string, params url.Values, out any) error {
	return p.callJSON(ctx, http.MethodPost, path, params, out)
}

func (p *Publisher) callJSON(ctx context.Context, method, path string, params url.Values, out any) error {
	status, body, err := p.do(ctx, method, path, params)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("graph api %s %s: status %d, body: %s", method, path, status, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("graph api %s %s: decode response: %w", method, path, err)
	}
	return nil
}

// do sends one Graph request. GET parameters go in the query string, POST
// parameters in a form body. The access token travels in the Authorization
// header so it never appears in a URL or in a transport error.
func (p *Publisher) do(ctx context.Context, method, path string, params url.Values) (int, []byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := p.graphURL + path
	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	p.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	p.mu.Unlock()

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
