// Package github is the client for the GitHub REST API endpoints the issue
// browser reads: the repository label list and issue search.
package github

import (
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

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"issuebrowser/internal/metrics"
	"issuebrowser/internal/models"
	"issuebrowser/internal/query"
)

// API configuration constants.
const (
	DefaultAPIEndpoint = "https://api.github.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultPageSize    = 30
	MaxPageSize        = 100

	maxResponseSize = 10 * 1024 * 1024
)

// ErrInvalidRepository is returned for repository identifiers not of the form owner/name.
var ErrInvalidRepository = errors.New("repository must be of the form owner/name")

// APIError is a non-2xx response from GitHub.
type APIError struct {
	StatusCode       int    `json:"-"`
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: status %d", e.StatusCode)
	}
	return fmt.Sprintf("github: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to the GitHub REST API for one repository.
type Client struct {
	owner      string
	repo       string
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, GitHub Enterprise).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The token, if any, is
// still attached to every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times a failed request is retried and the base
// delay of the exponential backoff between attempts.
func WithRetries(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			c.retryDelay = baseDelay
		}
	}
}

// WithPageSize sets how many search results are requested.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = min(n, MaxPageSize)
		}
	}
}

// NewClient creates a client for repository "owner/name". token may be empty
// for unauthenticated access.
func NewClient(repository, token string, opts ...Option) (*Client, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}
	c := &Client{
		owner:      owner,
		repo:       repo,
		token:      token,
		baseURL:    DefaultAPIEndpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		pageSize:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if token != "" {
		c.httpClient = withToken(c.httpClient, token)
	}
	return c, nil
}

// withToken returns a copy of hc whose transport adds the bearer token.
func withToken(hc *http.Client, token string) *http.Client {
	authed := *hc
	authed.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   hc.Transport,
	}
	return &authed
}

// SplitRepository splits "owner/name".
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	return owner, repo, nil
}

// Repository returns "owner/name".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// ListLabels returns the first page of the repository's labels.
func (c *Client) ListLabels(ctx context.Context) ([]models.Label, error) {
	u := c.buildURL("/repos/"+c.owner+"/"+c.repo+"/labels", url.Values{
		"per_page": {strconv.Itoa(MaxPageSize)},
	})
	body, err := c.get(ctx, "labels", u)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	var labels []models.Label
	if err := json.Unmarshal(body, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels response: %w", err)
	}
	return labels, nil
}

// SearchIssues runs one search and returns the first page of results.
func (c *Client) SearchIssues(ctx context.Context, p query.Params) (*models.SearchResult, error) {
	values := url.Values{
		"q":        {p.Q},
		"per_page": {strconv.Itoa(c.pageSize)},
	}
	if p.Sort != "" {
		values.Set("sort", string(p.Sort))
	}
	if p.Order != "" {
		values.Set("order", string(p.Order))
	}

	body, err := c.get(ctx, "search", c.buildURL("/search/issues", values))
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	var result models.SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if result.Items == nil {
		result.Items = []models.Issue{}
	}
	return &result, nil
}

func (c *Client) buildURL(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get performs a GET with throttling and bounded exponential-backoff retries.
// Only transport failures, 5xx and rate-limit responses are retried.
func (c *Client) get(ctx context.Context, endpoint, urlStr string) ([]byte, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryDelay
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxRetries)), ctx)

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, retryable, err := c.do(ctx, endpoint, urlStr)
		if err != nil && !retryable {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}
	notify := func(err error, wait time.Duration) {
		logrus.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
			"wait":     wait,
		}).WithError(err).Warn("github: request failed, retrying")
	}
	return backoff.RetryNotifyWithData(op, policy, notify)
}

// do performs one attempt and reports whether a failure may be retried.
func (c *Client) do(ctx context.Context, endpoint, urlStr string) ([]byte, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "issuebrowser")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordGitHubRequest(endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordGitHubRequest(endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, false, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return nil, isRetryable(resp), apiErr
}

func isRetryable(resp *http.Response) bool {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return true
	case resp.StatusCode >= 500:
		return true
	}
	return false
}
