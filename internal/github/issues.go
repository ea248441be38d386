package github

import (
	"context"
	"sort"

	gh "github.com/google/go-github/v66/github"
)

// Issue is the part of a GitHub issue sake shows in prompts.
type Issue struct {
	Number  int
	Title   string
	HTMLURL string
}

// OpenIssues lists the open issues of owner/repo carrying every label in
// labels, sorted by number. Pull requests are skipped.
func (c *Client) OpenIssues(ctx context.Context, owner, repo string, labels ...string) ([]Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      labels,
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var out []Issue
	for {
		issues, resp, err := c.api.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, remoteError("Listing issues for "+owner+"/"+repo, err)
		}
		for _, i := range issues {
			if i.IsPullRequest() {
				continue
			}
			out = append(out, Issue{Number: i.GetNumber(), Title: i.GetTitle(), HTMLURL: i.GetHTMLURL()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Number < out[b].Number })
	return out, nil
}

// IssueRequest describes an issue to open.
type IssueRequest struct {
	Owner  string
	Repo   string
	Title  string
	Body   string
	Labels []string
}

// CreateIssue opens an issue and returns it.
func (c *Client) CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error) {
	labels := req.Labels
	issue, _, err := c.api.Issues.Create(ctx, req.Owner, req.Repo, &gh.IssueRequest{
		Title:  gh.String(req.Title),
		Body:   gh.String(req.Body),
		Labels: &labels,
	})
	if err != nil {
		return nil, remoteError("Creating issue on "+req.Owner+"/"+req.Repo, err)
	}
	return &Issue{Number: issue.GetNumber(), Title: issue.GetTitle(), HTMLURL: issue.GetHTMLURL()}, nil
}
