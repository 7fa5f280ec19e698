package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAppendBaseURL is the base URL for Roam Append API
	DefaultAppendBaseURL = "https://append-api.roamresearch.com"
	// AppendAPITimeout is the default timeout for Append API requests
	AppendAPITimeout = 30 * time.Second
)

// AppendBlock represents a block for the append API
type AppendBlock struct {
	String   string        `json:"string"`
	UID      string        `json:"uid,omitempty"`
	Children []AppendBlock `json:"children,omitempty"`
	Heading  *int          `json:"heading,omitempty"`
	Open     *bool         `json:"open,omitempty"`
}

// AppendLocation specifies where to append blocks.
type AppendLocation struct {
	Page  *AppendPage        `json:"page,omitempty"`
	Block *AppendBlockTarget `json:"block,omitempty"`
}

// AppendPage specifies a page target.
type AppendPage struct {
	Title string `json:"title"`
}

// AppendBlockTarget specifies a block target.
type AppendBlockTarget struct {
	UID string `json:"uid"`
}

// AppendClient implements the Roam Append API for encrypted graphs. The API
// is write-only: blocks can be appended but nothing can be read back.
type AppendClient struct {
	baseURL    string
	apiToken   string
	graphName  string
	httpClient *http.Client
	logger     *slog.Logger
}

// AppendClientOption is a function that configures an AppendClient
type AppendClientOption func(*AppendClient)

// WithAppendBaseURL sets a custom base URL for the client
func WithAppendBaseURL(url string) AppendClientOption {
	return func(c *AppendClient) {
		c.baseURL = url
	}
}

// WithAppendTimeout sets a custom timeout
func WithAppendTimeout(timeout time.Duration) AppendClientOption {
	return func(c *AppendClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithAppendLogger sets the logger used for request tracing.
func WithAppendLogger(logger *slog.Logger) AppendClientOption {
	return func(c *AppendClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAppendClient creates a new Append API client
func NewAppendClient(graphName, apiToken string, opts ...AppendClientOption) *AppendClient {
	c := &AppendClient{
		baseURL:   DefaultAppendBaseURL,
		apiToken:  apiToken,
		graphName: graphName,
		logger:    slog.New(slog.DiscardHandler),
		httpClient: &http.Client{
			Timeout: AppendAPITimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GraphName returns the graph name
func (c *AppendClient) GraphName() string {
	return c.graphName
}

// appendRequest represents a request to the Append API
type appendRequest struct {
	Location   AppendLocation `json:"location"`
	AppendData []AppendBlock  `json:"append-data"`
}

// Append appends blocks at a fully specified location.
func (c *AppendClient) Append(ctx context.Context, loc AppendLocation, blocks []AppendBlock) error {
	url := fmt.Sprintf("%s/api/graph/%s/append-blocks", c.baseURL, c.graphName)
	c.logger.Debug("roam append", "url", url, "blocks", len(blocks))

	res, err := postJSON(ctx, c.httpClient, url, c.apiToken, appendRequest{Location: loc, AppendData: blocks})
	if err != nil {
		return err
	}
	switch res.status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusBadRequest:
		return statusError(res.status, res.body)
	default:
		return fmt.Errorf("append API error (status %d): %s", res.status, string(res.body))
	}
}
