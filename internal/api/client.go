package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the base URL for Roam Research API
	DefaultBaseURL = "https://api.roamresearch.com"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
	// MaxRetries for rate limit errors
	MaxRetries = 3
	// InitialBackoff for rate limit retries
	InitialBackoff = 10 * time.Second
)

var peerRedirect = regexp.MustCompile(`https://(peer-\d+).*?:(\d+)`)

// Client is a Roam Research backend API client.
type Client struct {
	baseURL    string
	apiToken   string
	graphName  string
	httpClient *http.Client
	logger     *slog.Logger
	backoff    time.Duration

	mu            sync.Mutex
	redirectCache map[string]string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the client
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBackoff sets the initial wait between rate-limit retries.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient creates a new Roam Research API client
func NewClient(graphName, apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		apiToken:      apiToken,
		graphName:     graphName,
		redirectCache: make(map[string]string),
		logger:        slog.New(slog.DiscardHandler),
		backoff:       InitialBackoff,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Peer redirects are followed by callCtx.
				return http.ErrUseLastResponse
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GraphName returns the graph name
func (c *Client) GraphName() string {
	return c.graphName
}

func (c *Client) endpoint(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.redirectCache[c.graphName]; ok {
		return cached + path
	}
	return c.baseURL + path
}

// callCtx makes a single API call to the specified path, following one
// peer redirect.
func (c *Client) callCtx(ctx context.Context, path string, body interface{}) ([]byte, error) {
	url := c.endpoint(path)
	c.logger.Debug("roam request", "url", url)

	res, err := postJSON(ctx, c.httpClient, url, c.apiToken, body)
	if err != nil {
		return nil, err
	}

	if res.redirected() {
		if res.location == "" {
			return nil, fmt.Errorf("redirect without Location header")
		}
		matches := peerRedirect.FindStringSubmatch(res.location)
		if matches == nil {
			return nil, fmt.Errorf("could not parse redirect URL: %s", res.location)
		}

		peer, port := matches[1], matches[2]
		c.mu.Lock()
		c.redirectCache[c.graphName] = fmt.Sprintf("https://%s.api.roamresearch.com:%s", peer, port)
		c.mu.Unlock()
		c.logger.Debug("roam redirect", "peer", peer, "port", port)
		return c.callCtx(ctx, path, body)
	}

	if res.status != http.StatusOK {
		return nil, statusError(res.status, res.body)
	}
	return res.body, nil
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return AuthenticationError{Message: "invalid API token"}
	case http.StatusTooManyRequests:
		return RateLimitError{Message: fmt.Sprintf("rate limit exceeded: %s", string(body))}
	case http.StatusBadRequest:
		return ValidationError{Message: fmt.Sprintf("invalid request: %s", string(body))}
	case http.StatusNotFound:
		return NotFoundError{Message: fmt.Sprintf("not found: %s", string(body))}
	case http.StatusInternalServerError:
		return fmt.Errorf("server error: %s", string(body))
	default:
		return fmt.Errorf("API error (status %d): %s", status, string(body))
	}
}

// callWithRetry retries rate-limited calls with exponential backoff.
func (c *Client) callWithRetry(ctx context.Context, path string, body interface{}) ([]byte, error) {
	backoff := c.backoff

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		resp, err := c.callCtx(ctx, path, body)
		if err == nil {
			return resp, nil
		}

		var rateLimited RateLimitError
		if !errors.As(err, &rateLimited) {
			return nil, err
		}

		if attempt < MaxRetries {
			c.logger.Warn("rate limited, retrying", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, RateLimitError{Message: "rate limit exceeded after retries"}
}

// QueryResult represents the result of a Datalog query
type QueryResult struct {
	Result [][]interface{} `json:"result"`
}

// Query executes a Datalog query against the graph
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) ([][]interface{}, error) {
	path := fmt.Sprintf("/api/graph/%s/q", c.graphName)

	body := map[string]interface{}{
		"query": query,
	}
	if len(args) > 0 {
		body["args"] = args
	}

	resp, err := c.callWithRetry(ctx, path, body)
	if err != nil {
		return nil, err
	}

	var result QueryResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse query result: %w", err)
	}

	return result.Result, nil
}

// PullResult represents the result of a pull operation
type PullResult struct {
	Result json.RawMessage `json:"result"`
}

// Pull retrieves an entity by ID with the given selector pattern
func (c *Client) Pull(ctx context.Context, eid interface{}, selector string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/graph/%s/pull", c.graphName)

	body := map[string]interface{}{
		"eid":      eid,
		"selector": selector,
	}

	resp, err := c.callWithRetry(ctx, path, body)
	if err != nil {
		return nil, err
	}

	var result PullResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse pull result: %w", err)
	}

	return result.Result, nil
}

// WriteAction represents a write operation type
type WriteAction string

const (
	ActionCreateBlock  WriteAction = "create-block"
	ActionCreatePage   WriteAction = "create-page"
	ActionDeletePage   WriteAction = "delete-page"
	ActionBatchActions WriteAction = "batch-actions"
)

// BlockLocation specifies where to create a block
type BlockLocation struct {
	ParentUID interface{} `json:"parent-uid"`
	Order     interface{} `json:"order"` // int or "first"/"last"
}

// Block represents a Roam block
type Block struct {
	String  string `json:"string"`
	UID     string `json:"uid,omitempty"`
	Open    *bool  `json:"open,omitempty"`
	Heading *int   `json:"heading,omitempty"`
}

// Page represents a Roam page
type Page struct {
	Title string `json:"title,omitempty"`
	UID   string `json:"uid,omitempty"`
}

// Write performs a write operation on the graph
func (c *Client) Write(ctx context.Context, action WriteAction, data map[string]interface{}) error {
	path := fmt.Sprintf("/api/graph/%s/write", c.graphName)

	body := map[string]interface{}{
		"action": string(action),
	}
	for k, v := range data {
		body[k] = v
	}

	_, err := c.callWithRetry(ctx, path, body)
	return err
}

// Ensure Client implements Graph at compile time
var _ Graph = (*Client)(nil)
