// Package remotive fetches remote job postings from the Remotive public API.
package remotive

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://remotive.com/api/remote-jobs"
	userAgent = "spigell/job-matcher"
	// DefaultSource is recorded for items that do not name their source.
	DefaultSource = "Remotive"

	defaultMaxRetries = 2
	retryBackoff      = time.Second
)

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// MaxRetries is how many times a failed request is repeated.
	MaxRetries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

func New(logger *zap.Logger, url string) *Client {
	if url == "" {
		url = apiURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		APIURL: url,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		UserAgent:  userAgent,
		MaxRetries: defaultMaxRetries,
		Backoff:    retryBackoff,
	}
}

// Fetch returns the current job list. A positive limit is passed to the API.
func (c *Client) Fetch(ctx context.Context, limit int) (*Jobs, error) {
	return c.fetch(ctx, limit)
}
