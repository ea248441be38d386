package wccom

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/model"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("vendor", "app-pass", nil)
	c.BaseURL = srv.URL
	c.PollInterval = time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusHandler(t *testing.T, responses ...map[string]any) http.HandlerFunc {
	var calls atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "vendor", user)
		assert.Equal(t, "app-pass", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1234", r.PostForm.Get("product_id"))

		i := int(calls.Add(1)) - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		writeJSON(w, http.StatusOK, responses[i])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		status  map[string]any
		wantErr bool
	}{
		{"completed older version", map[string]any{"status": "completed", "version": "1.2.0"}, false},
		{"queued older version", map[string]any{"status": "queued", "version": "1.2.0"}, false},
		{"queued same version", map[string]any{"status": "queued", "version": "1.3.0"}, true},
		{"processing newer version", map[string]any{"status": "processing", "version": "1.4.0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /product/deploy/status", statusHandler(t, tt.status))

			err := newTestClient(t, mux).Validate(context.Background(), 1234, "1.3.0")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "already higher than or equal to 1.3.0")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_NoPreviousSubmission(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"code": "submission_not_found", "message": "No submissions"})
	})

	assert.NoError(t, newTestClient(t, mux).Validate(context.Background(), 1234, "1.3.0"))
}

func TestValidate_NoQueueItem(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", statusHandler(t, map[string]any{
		"code":    CodeNoQueueItem,
		"message": "No queue item found",
	}))

	assert.NoError(t, newTestClient(t, mux).Validate(context.Background(), 1234, "1.3.0"))
}

func TestStatus_ErrorCodeWithSuccessStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", statusHandler(t, map[string]any{"code": "wccom_rest_invalid_product"}))

	_, err := newTestClient(t, mux).Status(context.Background(), 1234)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "WC API: Unexpected response code from WC API (wccom_rest_invalid_product)", apiErr.Error())

	err = newTestClient(t, mux).Validate(context.Background(), 1234, "1.3.0")
	require.Error(t, err)
}

func TestStatus_NonJSONError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>upstream timed out</html>\n")
	})

	_, err := newTestClient(t, mux).Status(context.Background(), 1234)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "502", apiErr.Code)
	assert.Equal(t, "<html>upstream timed out</html>", apiErr.Message)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestUpload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "1234", r.FormValue("product_id"))
		assert.Equal(t, "1.3.0", r.FormValue("version"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "woocommerce-foo.1.3.0.zip", hdr.Filename)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "zip-bytes", string(data))

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	err := newTestClient(t, mux).Upload(context.Background(), 1234, "1.3.0", "woocommerce-foo.1.3.0.zip", strings.NewReader("zip-bytes"))
	require.NoError(t, err)
}

func TestUpload_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, http.StatusForbidden, map[string]any{"code": "rest_forbidden", "message": "Sorry, you are not allowed to do that."})
	})

	err := newTestClient(t, mux).Upload(context.Background(), 1234, "1.3.0", "foo.zip", strings.NewReader("zip"))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "WC API: Sorry, you are not allowed to do that. (rest_forbidden)", apiErr.Error())
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitRemoteError, cliErr.Code)
}

func TestWaitForResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", statusHandler(t,
		map[string]any{"status": "queued", "version": "1.3.0"},
		map[string]any{"status": "processing", "version": "1.3.0"},
		map[string]any{"status": "completed", "version": "1.3.0"},
	))

	st, err := newTestClient(t, mux).WaitForResult(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
}

func TestWaitForResult_Failed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", statusHandler(t,
		map[string]any{"status": "failed", "version": "1.3.0", "message": "Malware scan failed"},
	))

	_, err := newTestClient(t, mux).WaitForResult(context.Background(), 1234)
	require.Error(t, err)
	assert.Equal(t, "WooCommerce.com rejected version 1.3.0: Malware scan failed", err.Error())
}
