package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v81/github"

	"gradepipe/internal/steps"
)

// PublishCheckRun posts a completed check run carrying the grade. This is
// the only mutating API call in the tool; it requires checks: write and
// is never attempted otherwise.
func (c *Client) PublishCheckRun(ctx context.Context, owner, repo, headSHA string, check steps.CheckRun) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("publish check run: repository is not set")
	}
	if headSHA == "" {
		return fmt.Errorf("publish check run: head SHA is not set")
	}

	name := check.Name
	if name == "" {
		name = "autograding"
	}
	conclusion := "failure"
	if check.Passed {
		conclusion = "success"
	}

	opts := github.CreateCheckRunOptions{
		Name:       name,
		HeadSHA:    headSHA,
		Status:     github.Ptr("completed"),
		Conclusion: github.Ptr(conclusion),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr(check.Title),
			Summary: github.Ptr(check.Summary),
		},
	}

	_, _, err := c.Client.Checks.CreateCheckRun(ctx, owner, repo, opts)
	if err != nil {
		return fmt.Errorf("create check run for %s/%s@%s: %w", owner, repo, headSHA, err)
	}
	return nil
}
