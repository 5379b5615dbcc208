// Package helpclient implements services.HelpAPI against a remote help
// server, for widgets that run outside the server process.
package helpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/services"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/sirupsen/logrus"
)

const apiPrefix = "/api/v1/help"

// StatusError is a non-2xx answer from the help server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("help API request failed with status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
	runner     tasks.Runner
	logger     *logrus.Logger
}

var _ services.HelpAPI = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRunner sends analytics events through r instead of inline.
func WithRunner(r tasks.Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithSessionID sets the X-Session-ID header on every request.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

func NewClient(baseURL string, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Search(ctx context.Context, params models.SearchParams) ([]models.Article, error) {
	q := url.Values{}
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if tags := models.NormalizeTags(params.Tags); len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}

	articles := []models.Article{}
	if err := c.makeRequest(ctx, http.MethodGet, "/content", q, nil, &articles); err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrQueryFailed, err)
	}
	return articles, nil
}

// FetchByID maps a 404 to found == false.
func (c *Client) FetchByID(ctx context.Context, id string) (models.Article, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Article{}, false, nil
	}

	var article models.Article
	err := c.makeRequest(ctx, http.MethodGet, "/content/"+url.PathEscape(id), nil, nil, &article)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return models.Article{}, false, nil
	}
	if err != nil {
		return models.Article{}, false, fmt.Errorf("%w: %w", services.ErrQueryFailed, err)
	}
	return article, true, nil
}

func (c *Client) TopPopular(ctx context.Context, n int) ([]models.Article, error) {
	q := url.Values{}
	if n > 0 {
		q.Set("limit", strconv.Itoa(n))
	}

	articles := []models.Article{}
	if err := c.makeRequest(ctx, http.MethodGet, "/popular", q, nil, &articles); err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrQueryFailed, err)
	}
	return articles, nil
}

// Record validates locally, then posts the event. Delivery failures are
// logged and never returned.
func (c *Client) Record(ctx context.Context, event models.AnalyticsEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	req := models.AnalyticsRequest{
		TopicID:     event.TopicID,
		Action:      string(event.Action),
		Timestamp:   &event.Timestamp,
		Context:     event.Context,
		SessionHash: event.SessionHash,
	}
	fields := logrus.Fields{"action": event.Action, "topic_id": event.TopicID}

	if c.runner != nil {
		c.runner.Submit(tasks.Task{
			Name:   "post_analytics",
			Fields: fields,
			Run: func(ctx context.Context) error {
				return c.makeRequest(ctx, http.MethodPost, "/analytics", nil, req, nil)
			},
		})
		return nil
	}

	if err := c.makeRequest(ctx, http.MethodPost, "/analytics", nil, req, nil); err != nil {
		c.logger.WithError(err).WithFields(fields).Warn("Failed to deliver analytics event")
	}
	return nil
}

func (c *Client) Summarize(ctx context.Context) (models.AnalyticsSummary, error) {
	var summary models.AnalyticsSummary
	if err := c.makeRequest(ctx, http.MethodGet, "/analytics/summary", nil, nil, &summary); err != nil {
		return models.AnalyticsSummary{}, fmt.Errorf("%w: %w", services.ErrQueryFailed, err)
	}
	return summary, nil
}

// envelope mirrors utils.APIResponse with a deferred data payload.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, query url.Values, payload interface{}, result interface{}) error {
	target := c.baseURL + apiPrefix + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionID != "" {
		req.Header.Set("X-Session-ID", c.sessionID)
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    target,
	}).Debug("Making help API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"method":        method,
		"url":           target,
		"response_size": len(responseBody),
	}).Debug("Help API response received")

	var env envelope
	decodeErr := json.Unmarshal(responseBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(responseBody))
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}
