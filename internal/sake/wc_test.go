package sake

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/model"
)

const wcConfig = `{"framework": false, "deploy": {"type": "wc", "wooId": 123}}`

var wcEnv = map[string]string{
	"WC_USERNAME":             "vendor",
	"WC_APPLICATION_PASSWORD": "app-pass",
}

// wcStore fakes the WooCommerce.com submission runner. Status answers are
// served in order, the last one repeating.
type wcStore struct {
	mu       sync.Mutex
	statuses []func(w http.ResponseWriter)
	uploads  []string
}

func (st *wcStore) mux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /product/deploy/status", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "vendor", user)
		assert.Equal(t, "app-pass", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "123", r.PostForm.Get("product_id"))

		st.mu.Lock()
		next := st.statuses[0]
		if len(st.statuses) > 1 {
			st.statuses = st.statuses[1:]
		}
		st.mu.Unlock()
		next(w)
	})
	mux.HandleFunc("POST /product/deploy", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)

		st.mu.Lock()
		st.uploads = append(st.uploads, r.FormValue("version")+":"+header.Filename)
		st.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	return mux
}

func statusNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"code": "not_found", "message": "No submission found"})
}

func statusOf(status, version string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, map[string]any{"status": status, "version": version})
	}
}

func newWCSake(t *testing.T, store *wcStore, options Options) (*Sake, *testbed) {
	t.Helper()
	return newSake(t, setup{
		files: map[string]string{
			"sake.config.json":                wcConfig,
			"build/woocommerce-foo.1.2.0.zip": "zip-bytes",
		},
		options:   options,
		env:       wcEnv,
		endpoints: Endpoints{WooCommerce: testServer(t, store.mux(t))},
	})
}

func TestWCDeploy(t *testing.T) {
	store := &wcStore{statuses: []func(http.ResponseWriter){
		statusNotFound,
		statusOf("completed", "1.2.0"),
	}}
	s, _ := newWCSake(t, store, Options{})
	s.setNewVersion("1.2.0")

	require.NoError(t, s.Tasks().Run(context.Background(), "wc:deploy"))
	assert.Equal(t, []string{"1.2.0:woocommerce-foo.1.2.0.zip"}, store.uploads)
}

func TestWCValidate_QueuedVersionIsNewer(t *testing.T) {
	store := &wcStore{statuses: []func(http.ResponseWriter){statusOf("queued", "1.3.0")}}
	s, _ := newWCSake(t, store, Options{})
	s.setNewVersion("1.2.0")

	err := s.Tasks().Run(context.Background(), "wc:deploy")
	cliErr := requireExitCode(t, err, model.ExitRemoteError)
	assert.Equal(t, "Queued version for plugin (1.3.0) is already higher than or equal to 1.2.0", cliErr.Message)
	assert.Empty(t, store.uploads)
}

func TestWCStatus_Rejected(t *testing.T) {
	store := &wcStore{statuses: []func(http.ResponseWriter){
		func(w http.ResponseWriter) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "failed", "version": "1.2.0", "message": "Invalid zip"})
		},
	}}
	s, _ := newWCSake(t, store, Options{})
	s.setNewVersion("1.2.0")

	err := s.Tasks().Run(context.Background(), "wc:status")
	cliErr := requireExitCode(t, err, model.ExitRemoteError)
	assert.Equal(t, "WooCommerce.com rejected version 1.2.0: Invalid zip", cliErr.Message)
}

func TestWCUpload_DryRun(t *testing.T) {
	store := &wcStore{statuses: []func(http.ResponseWriter){statusNotFound}}
	s, _ := newWCSake(t, store, Options{DryRun: true})
	s.setNewVersion("1.2.0")

	require.NoError(t, s.tasks.Series("wc:upload", "wc:status")(context.Background()))
	assert.Empty(t, store.uploads)
}

func TestWCClient_Misconfigured(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		s, _ := newSake(t, setup{files: map[string]string{"sake.config.json": wcConfig}})
		_, err := s.wcClient()
		cliErr := requireExitCode(t, err, model.ExitEnvInvalid)
		assert.Contains(t, cliErr.Message, "WC_USERNAME not set")
	})

	t.Run("missing product id", func(t *testing.T) {
		s, _ := newSake(t, setup{env: wcEnv})
		_, err := s.wcClient()
		cliErr := requireExitCode(t, err, model.ExitConfigError)
		assert.Equal(t, "deploy.wooId is not configured", cliErr.Message)
	})
}
