package github

import (
	"context"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// milestoneConcurrency caps parallel milestone requests.
const milestoneConcurrency = 5

// MilestoneResult reports the outcome of one milestone request.
type MilestoneResult struct {
	Milestone   Milestone
	Description string
	Err         error
}

// CreateMilestones creates every milestone on owner/repo, each described
// by a fresh codename. Failures are logged and reported per milestone;
// they do not stop the remaining requests. Results keep input order.
func (c *Client) CreateMilestones(ctx context.Context, owner, repo string, milestones []Milestone, names *Codenames) []MilestoneResult {
	if names == nil {
		names = NewCodenames(nil)
	}
	results := make([]MilestoneResult, len(milestones))
	for i, m := range milestones {
		results[i] = MilestoneResult{Milestone: m, Description: names.Next()}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(milestoneConcurrency)
	for i := range results {
		g.Go(func() error {
			res := &results[i]
			due := res.Milestone.Due.Format("2006-01-02")
			_, _, err := c.api.Issues.CreateMilestone(ctx, owner, repo, &gh.Milestone{
				Title:       gh.String(res.Milestone.Title),
				Description: gh.String(res.Description),
				DueOn:       &gh.Timestamp{Time: res.Milestone.Due},
			})

			if err != nil {
				res.Err = remoteError("Creating milestone "+res.Milestone.Title, err)
				c.log.Error("Error creating milestone",
					zap.String("description", res.Description),
					zap.String("due", due),
					zap.Error(err))
				return nil
			}
			c.log.Info("Milestone created",
				zap.String("description", res.Description),
				zap.String("due", due))
			return nil
		})
	}
	_ = g.Wait()
	return results
}
