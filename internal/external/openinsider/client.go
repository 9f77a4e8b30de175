package openinsider

import (
	"github.com/mreyes/confluence/pkg/httputil"
	"github.com/mreyes/confluence/pkg/logger"
)

// Client handles communication with openinsider.com.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new openinsider client.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "openinsider"),
		baseURL:    "http://openinsider.com",
	}
}

// WithBaseURL overrides the endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}
