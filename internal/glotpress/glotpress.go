// Package glotpress downloads translation exports from a GlotPress
// install. The project page lists one row per locale; every locale's
// translation set offers .po and .mo exports over plain HTTP.
package glotpress

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
)

// Formats are the export formats downloaded for every locale.
var Formats = []string{"po", "mo"}

// Locale is a translation set linked from a project page.
type Locale struct {
	// Name is the link text, e.g. "German".
	Name string

	// Slug is the locale segment of the set URL, e.g. "de".
	Slug string

	// URL is the absolute translation set URL.
	URL string
}

// Client fetches pages and exports from a GlotPress install.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *zap.Logger
}

// NewClient creates a client for the GlotPress install at baseURL.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: withSlash(baseURL),
		HTTP:    &http.Client{Timeout: time.Minute},
		Log:     log,
	}
}

// ProjectURL returns the page of project, e.g. "wp/skyverge/woocommerce-memberships".
func (c *Client) ProjectURL(project string) string {
	return withSlash(withSlash(c.BaseURL) + "projects/" + strings.Trim(project, "/"))
}

// Locales scrapes the locale links from the project page.
func (c *Client) Locales(ctx context.Context, project string) ([]Locale, error) {
	pageURL := c.ProjectURL(project)
	c.Log.Info("Fetching translations", zap.String("url", pageURL))

	body, _, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var locales []Locale
	doc.Find("table tr td strong a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		locales = append(locales, Locale{
			Name: strings.TrimSpace(a.Text()),
			Slug: localeSlug(abs.Path),
			URL:  withSlash(abs.String()),
		})
	})
	c.Log.Info(fmt.Sprintf("Found %d languages", len(locales)))
	return locales, nil
}

// Export downloads one locale export. The file name comes from the
// response's Content-Disposition header, falling back to
// "<domain>-<slug>.<format>".
func (c *Client) Export(ctx context.Context, locale Locale, format, domain string) (string, []byte, error) {
	exportURL := locale.URL + "export-translations/?format=" + url.QueryEscape(format)
	body, header, err := c.get(ctx, exportURL)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", nil, err
	}

	name := fmt.Sprintf("%s-%s.%s", domain, locale.Slug, format)
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = path.Base(params["filename"])
	}
	return name, data, nil
}

// Download fetches every export of every locale of project into dir and
// returns the written paths.
func (c *Client) Download(ctx context.Context, fsys afero.Fs, project, domain, dir string) ([]string, error) {
	locales, err := c.Locales(ctx, project)
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for _, l := range locales {
		for _, format := range Formats {
			name, data, err := c.Export(ctx, l, format, domain)
			if err != nil {
				return written, err
			}
			dst := filepath.Join(dir, name)
			c.Log.Info("Downloading "+l.Name, zap.String("file", dst))
			if err := afero.WriteFile(fsys, dst, data, 0644); err != nil {
				return written, err
			}
			written = append(written, dst)
		}
	}
	return written, nil
}

func (c *Client) get(ctx context.Context, u string) (io.ReadCloser, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, model.WrapCLIError(model.ExitRemoteError, "GlotPress request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, model.NewCLIError(model.ExitRemoteError, fmt.Sprintf("GlotPress returned %s for %s", resp.Status, u))
	}
	return resp.Body, resp.Header, nil
}

// localeSlug picks the locale from a set path such as
// /projects/wp/foo/de/default/.
func localeSlug(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return parts[len(parts)-1]
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
