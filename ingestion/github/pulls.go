package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/poiesic/signalsearch/core"
)

// FetchMergedPullRequests lists the limit most recently updated closed pull
// requests and returns the merged ones as documents, in API order.
func (c *Client) FetchMergedPullRequests(ctx context.Context, owner, repo string, limit int) ([]*core.Document, error) {
	prs, err := c.ListClosedPullRequests(ctx, owner, repo, limit)
	if err != nil {
		return nil, err
	}

	docs := make([]*core.Document, 0, len(prs))
	for _, pr := range prs {
		if !IsMerged(pr) {
			continue
		}
		docs = append(docs, ToDocument(pr))
	}

	c.logger.Info("fetched pull requests",
		"repository", owner+"/"+repo,
		"closed", len(prs),
		"merged", len(docs))
	return docs, nil
}

// IsMerged reports whether pr carries a merge time.
func IsMerged(pr *gh.PullRequest) bool {
	return pr != nil && pr.MergedAt != nil && !pr.MergedAt.IsZero()
}

// ToDocument converts a merged pull request into a document.
// The body is truncated to core.ContextLimit characters followed by "...".
func ToDocument(pr *gh.PullRequest) *core.Document {
	doc := &core.Document{
		Author:      pr.GetUser().GetLogin(),
		SkillSignal: pr.GetTitle(),
		Context:     core.TruncateContext(pr.GetBody()),
		ProofURL:    pr.GetDiffURL(),
	}
	if IsMerged(pr) {
		doc.MergedAt = pr.GetMergedAt().UTC().Format(time.RFC3339)
	}
	doc.Id = core.DocumentID(doc)
	return doc
}
