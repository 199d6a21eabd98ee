// Package report fetches the daily per-user usage report, either from the
// remote reporting API or from a local JSON file.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

const (
	requestTimeout = 30 * time.Second
	maxBodySize    = 16 << 20 // 16 MB, report pages are large
	reportPath     = "/reports/getM365CopilotUsageUserDetail(period='D7')"
)

var (
	// ErrUnauthorized indicates the bearer token is expired or invalid.
	ErrUnauthorized = errors.New("report: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API throttled the request even after the
	// retry budget was spent.
	ErrRateLimited = errors.New("report: rate limited")
)

// TokenSource supplies a bearer token per request. Credential acquisition and
// refresh live behind this boundary.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client fetches usage reports from the remote reporting API.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	retry   retrypolicy.RetryPolicy[*http.Response]
}

// NewClient creates a client for the given API base URL and token source.
// Returns nil if either is missing.
func NewClient(baseURL string, tokens TokenSource) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || tokens == nil {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{},
		retry: retrypolicy.NewBuilder[*http.Response]().
			HandleIf(func(resp *http.Response, err error) bool {
				if err != nil {
					return true
				}
				return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			}).
			WithMaxRetries(3).
			WithBackoff(500*time.Millisecond, 10*time.Second).
			WithJitter(250 * time.Millisecond).
			Build(),
	}
}

// FetchDaily returns every row of the current daily report, following
// pagination until the source reports no next page.
func (c *Client) FetchDaily(ctx context.Context) ([]model.UsageRow, error) {
	next := c.baseURL + reportPath + "?$format=application/json"

	var rows []model.UsageRow
	for next != "" {
		page, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, w := range page.Value {
			rows = append(rows, w.toUsageRow())
		}
		next = page.NextLink
	}
	return rows, nil
}

func (c *Client) getPage(ctx context.Context, rawURL string) (*reportPage, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("report: bad page url: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: acquiring token: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := failsafe.With(c.retry).WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		// Retried statuses must not leak their bodies.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("report: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("report: reading response: %w", err)
	}

	var page reportPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("report: parsing page: %w", err)
	}
	return &page, nil
}
