package github

import (
	"context"
	"fmt"
	"io"
	"net/url"

	gh "github.com/google/go-github/v66/github"
)

// ReleaseRequest describes a release to create.
type ReleaseRequest struct {
	Owner string
	Repo  string
	Tag   string
	Name  string
	Body  string
}

// Release is a created release.
type Release struct {
	ID      int64
	HTMLURL string
}

// Asset is a file attached to a release.
type Asset struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// CreateRelease creates a published release for req.Tag.
func (c *Client) CreateRelease(ctx context.Context, req ReleaseRequest) (*Release, error) {
	rel, _, err := c.api.Repositories.CreateRelease(ctx, req.Owner, req.Repo, &gh.RepositoryRelease{
		TagName: gh.String(req.Tag),
		Name:    gh.String(req.Name),
		Body:    gh.String(req.Body),
	})
	if err != nil {
		return nil, remoteError("Creating GH release", err)
	}
	return &Release{ID: rel.GetID(), HTMLURL: rel.GetHTMLURL()}, nil
}

// UploadAsset attaches asset to the release with id.
func (c *Client) UploadAsset(ctx context.Context, owner, repo string, id int64, asset Asset) error {
	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/zip"
	}

	u := fmt.Sprintf("repos/%s/%s/releases/%d/assets?name=%s", owner, repo, id, url.QueryEscape(asset.Name))
	req, err := c.api.NewUploadRequest(u, asset.Content, asset.Size, contentType)
	if err != nil {
		return remoteError("Uploading release ZIP", err)
	}
	if _, err := c.api.Do(ctx, req, new(gh.ReleaseAsset)); err != nil {
		return remoteError("Uploading release ZIP", err)
	}
	return nil
}
