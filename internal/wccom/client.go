// Package wccom talks to the WooCommerce.com submission runner, the API
// marketplace vendors use to ship new plugin versions: a zip is posted
// for a product and then processed asynchronously, so callers check the
// latest submission before uploading and poll its status afterwards.
package wccom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
)

// DefaultBaseURL is the submission runner endpoint on WooCommerce.com.
const DefaultBaseURL = "https://woocommerce.com/wp-json/wc/submission/runner/v1"

// Submission states reported by the status endpoint.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CodeNoQueueItem is returned, with a 200, when a product has no
// submission yet.
const CodeNoQueueItem = "wccom_rest_no_queue_item"

// APIError is an error body returned by WooCommerce.com.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("WC API: %s (%s)", e.Message, e.Code)
}

// Status is the state of the latest submission for a product.
type Status struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Message string `json:"message,omitempty"`
}

// InProgress reports whether the submission is still being processed.
func (s *Status) InProgress() bool {
	return s.Status == StatusQueued || s.Status == StatusProcessing
}

// Client is a WooCommerce.com submission runner client.
type Client struct {
	BaseURL  string
	Username string
	Password string

	// PollInterval is the delay between status checks in WaitForResult.
	PollInterval time.Duration

	HTTP *http.Client
	Log  *zap.Logger
}

// NewClient creates a client authenticating with a WooCommerce.com
// username and application password.
func NewClient(username, password string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:      DefaultBaseURL,
		Username:     username,
		Password:     password,
		PollInterval: 10 * time.Second,
		HTTP:         &http.Client{Timeout: 5 * time.Minute},
		Log:          log,
	}
}

// Status fetches the latest submission status for productID.
func (c *Client) Status(ctx context.Context, productID int) (*Status, error) {
	form := url.Values{}
	form.Set("product_id", strconv.Itoa(productID))
	c.authFields(form)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("product/deploy/status"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var st Status
	if err := c.do(req, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Validate refuses to deploy version while a submission of the same or a
// newer version is still queued or processing.
func (c *Client) Validate(ctx context.Context, productID int, version string) error {
	c.Log.Info("Making sure plugin is deployable...")

	st, err := c.Status(ctx, productID)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.Code == CodeNoQueueItem) {
			c.Log.Info("No previous upload in queue")
			return nil
		}
		return err
	}
	if st.InProgress() && st.Version != "" && plugin.GTE(st.Version, version) {
		return model.NewCLIError(model.ExitRemoteError,
			fmt.Sprintf("Queued version for plugin (%s) is already higher than or equal to %s", st.Version, version))
	}
	return nil
}

// Upload posts the plugin zip for productID as version.
func (c *Client) Upload(ctx context.Context, productID int, version, fileName string, zip io.Reader) error {
	c.Log.Info("Uploading plugin to woocommerce.com...", zap.String("file", fileName))

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(c.writeUpload(mw, productID, version, fileName, zip))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("product/deploy"), pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return c.do(req, &res)
}

func (c *Client) writeUpload(mw *multipart.Writer, productID int, version, fileName string, zip io.Reader) error {
	fields := url.Values{}
	fields.Set("product_id", strconv.Itoa(productID))
	fields.Set("version", version)
	c.authFields(fields)
	for _, k := range []string{"product_id", "version", "username", "password"} {
		if v := fields.Get(k); v != "" {
			if err := mw.WriteField(k, v); err != nil {
				return err
			}
		}
	}

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, zip); err != nil {
		return err
	}
	return mw.Close()
}

// WaitForResult polls the submission status until it leaves the queue.
// A failed submission is returned as an error.
func (c *Client) WaitForResult(ctx context.Context, productID int) (*Status, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := c.Status(ctx, productID)
		if err != nil {
			return nil, err
		}
		switch {
		case st.Status == StatusFailed:
			msg := "WooCommerce.com rejected version " + st.Version
			if st.Message != "" {
				msg += ": " + st.Message
			}
			return st, model.NewCLIError(model.ExitRemoteError, msg)
		case !st.InProgress():
			c.Log.Info("Submission processed", zap.String("status", st.Status), zap.String("version", st.Version))
			return st, nil
		}

		c.Log.Info("Waiting for WooCommerce.com to process the upload...", zap.String("status", st.Status))
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) authFields(v url.Values) {
	if c.Username != "" {
		v.Set("username", c.Username)
	}
	if c.Password != "" {
		v.Set("password", c.Password)
	}
}

func (c *Client) endpoint(p string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + p
}

// do sends req with basic auth and decodes a JSON response into out.
// Non-2xx responses and bodies carrying an error code become APIErrors.
func (c *Client) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.Username, c.Password)
	req.Header.Set("Accept", "application/json")

	c.Log.Debug("WC API request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.WrapCLIError(model.ExitRemoteError, "WC API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.WrapCLIError(model.ExitRemoteError, "failed to read WC API response", err)
	}

	var apiErr APIError
	decodeErr := json.Unmarshal(body, &apiErr)
	apiErr.StatusCode = resp.StatusCode

	if resp.StatusCode >= 300 {
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = errorText(resp.StatusCode, body)
		}
		if apiErr.Code == "" {
			apiErr.Code = strconv.Itoa(resp.StatusCode)
		}
		return model.WrapCLIError(model.ExitRemoteError, "WooCommerce.com request failed", &apiErr)
	}
	// a 2xx body may still carry an error code instead of a result;
	// anything else that fails to decode is reported against out below
	if decodeErr == nil && apiErr.Code != "" {
		if apiErr.Message == "" {
			apiErr.Message = "Unexpected response code from WC API"
		}
		return model.WrapCLIError(model.ExitRemoteError, "WooCommerce.com request failed", &apiErr)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return model.WrapCLIError(model.ExitRemoteError, "unexpected WC API response", err)
	}
	return nil
}

// errorText describes a non-JSON error response by its body, or the
// status text when the body is empty.
func errorText(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
