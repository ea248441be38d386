// Package github wraps the GitHub REST API calls sake makes while
// releasing a plugin: creating releases with the plugin zip attached,
// finding and opening issues, and creating release milestones.
package github

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
)

// Client is a thin, sake-shaped layer over go-github.
type Client struct {
	api *gh.Client
	log *zap.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API host. Both the REST and
// upload endpoints use baseURL, which is how tests talk to httptest.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return err
		}
		c.api.BaseURL = u
		c.api.UploadURL = u
		return nil
	}
}

// WithLogger sets the logger used for milestone progress.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(token string, opts ...Option) (*Client, error) {
	api := gh.NewClient(nil)
	if token != "" {
		api = api.WithAuthToken(token)
	}
	c := &Client{api: api, log: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// remoteError wraps an API failure in a CLIError, keeping GitHub's own
// message when the response carried one.
func remoteError(action string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		return model.WrapCLIError(model.ExitRemoteError, fmt.Sprintf("%s failed: %s", action, ghErr.Message), err)
	}
	return model.WrapCLIError(model.ExitRemoteError, action+" failed", err)
}
