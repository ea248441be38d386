package glotpress

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectPage = `<!DOCTYPE html>
<html><body>
<table class="translation-sets">
  <thead><tr><th>Locale</th><th>%%</th></tr></thead>
  <tbody>
    <tr><td><strong><a href="/projects/wp/skyverge/woocommerce-memberships/de/default/">German</a></strong></td><td>98%%</td></tr>
    <tr><td><strong><a href="%s/projects/wp/skyverge/woocommerce-memberships/fr/default/">French</a></strong></td><td>91%%</td></tr>
    <tr><td><a href="/projects/elsewhere/">Not a locale</a></td></tr>
  </tbody>
</table>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("GET /projects/wp/skyverge/woocommerce-memberships/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/wp/skyverge/woocommerce-memberships/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, projectPage, srv.URL)
	})
	mux.HandleFunc("GET /projects/wp/skyverge/woocommerce-memberships/de/default/export-translations/", func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="woocommerce-memberships-de_DE.%s"`, format))
		fmt.Fprintf(w, "de %s", format)
	})
	mux.HandleFunc("GET /projects/wp/skyverge/woocommerce-memberships/fr/default/export-translations/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "fr %s", r.URL.Query().Get("format"))
	})
	return srv
}

func TestLocales(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL+"/", nil)

	locales, err := c.Locales(context.Background(), "wp/skyverge/woocommerce-memberships")
	require.NoError(t, err)
	require.Len(t, locales, 2)

	assert.Equal(t, Locale{
		Name: "German",
		Slug: "de",
		URL:  srv.URL + "/projects/wp/skyverge/woocommerce-memberships/de/default/",
	}, locales[0])
	assert.Equal(t, "fr", locales[1].Slug)
}

func TestDownload(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, nil)
	fsys := afero.NewMemMapFs()

	written, err := c.Download(context.Background(), fsys, "wp/skyverge/woocommerce-memberships", "woocommerce-memberships", "/src/i18n/languages")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/src/i18n/languages/woocommerce-memberships-de_DE.po",
		"/src/i18n/languages/woocommerce-memberships-de_DE.mo",
		"/src/i18n/languages/woocommerce-memberships-fr.po",
		"/src/i18n/languages/woocommerce-memberships-fr.mo",
	}, written)

	data, err := afero.ReadFile(fsys, "/src/i18n/languages/woocommerce-memberships-fr.mo")
	require.NoError(t, err)
	assert.Equal(t, "fr mo", string(data))
}

func TestLocales_HTTPError(t *testing.T) {
	srv := newServer(t)
	_, err := NewClient(srv.URL, nil).Locales(context.Background(), "wp/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
