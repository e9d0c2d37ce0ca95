// Package tracker provides a REST client for the external issue tracker
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/tildaslashalef/worklog/internal/config"
	"github.com/tildaslashalef/worklog/internal/loggy"
)

var (
	// ErrNotFound is returned when the tracker reports a missing resource
	ErrNotFound = errors.New("tracker: resource not found")

	// ErrUnauthorized is returned when credentials are rejected
	ErrUnauthorized = errors.New("tracker: unauthorized")
)

// Client handles all communication with the issue tracker API
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *loggy.Logger
}

// NewClient creates a new tracker client from config
func NewClient(cfg config.TrackerConfig, logger *loggy.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		baseURL:    baseURL,
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Sprints lists the sprints visible to the configured user
func (c *Client) Sprints(ctx context.Context) ([]Sprint, error) {
	var resp sprintListResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/rest/sprints", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing sprints: %w", err)
	}
	return resp.Sprints, nil
}

// SprintIssues lists the issues assigned to a sprint
func (c *Client) SprintIssues(ctx context.Context, sprintID string) ([]Issue, error) {
	path := fmt.Sprintf("/rest/sprints/%s/issues", url.PathEscape(sprintID))

	var resp issueListResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing sprint issues: %w", err)
	}
	return resp.Issues, nil
}

// AddWorklog creates a worklog entry on an issue and returns its remote ID
func (c *Client) AddWorklog(ctx context.Context, w Worklog) (string, error) {
	path := fmt.Sprintf("/rest/issues/%s/worklogs", url.PathEscape(w.IssueKey))

	var resp worklogResponse
	if err := c.makeRequest(ctx, http.MethodPost, path, w, &resp); err != nil {
		return "", fmt.Errorf("adding worklog to %s: %w", w.IssueKey, err)
	}
	return resp.ID, nil
}

// DeleteWorklog removes a worklog entry from an issue.
// A missing entry is reported as ErrNotFound so callers can treat it
// as already deleted.
func (c *Client) DeleteWorklog(ctx context.Context, issueKey, worklogID string) error {
	path := fmt.Sprintf("/rest/issues/%s/worklogs/%s",
		url.PathEscape(issueKey), url.PathEscape(worklogID))

	if err := c.makeRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting worklog %s on %s: %w", worklogID, issueKey, err)
	}
	return nil
}

// makeRequest performs an HTTP request with rate limiting and retries
func (c *Client) makeRequest(ctx context.Context, method, path string, body, result any) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var reader io.Reader
		if jsonBody != nil {
			reader = bytes.NewReader(jsonBody)
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		httpReq.Header.Set("Accept", "application/json")
		if jsonBody != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		httpReq.SetBasicAuth(c.username, c.apiToken)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if result == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
			}
			return nil
		}

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			respBody = nil
		}
		return c.handleErrorResponse(resp.StatusCode, respBody)
	}

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx))
}

// handleErrorResponse converts tracker error payloads into error values.
// Client errors are permanent; server errors are retried.
func (c *Client) handleErrorResponse(status int, body []byte) error {
	var payload errorResponse
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" && len(payload.Errors) > 0 {
		msg = strings.Join(payload.Errors, "; ")
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, msg))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUnauthorized, msg))
	case status >= 400 && status < 500:
		return backoff.Permanent(fmt.Errorf("tracker rejected request (%d): %s", status, msg))
	default:
		c.logger.Warn("Tracker request failed, retrying", "status", status, "message", msg)
		return fmt.Errorf("tracker request failed (%d): %s", status, msg)
	}
}
