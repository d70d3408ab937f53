package github

import (
	"context"
	"fmt"

	"github.com/dshills/sift/internal/output"
	"github.com/dshills/sift/internal/review"
)

// Publisher posts review results to one pull request.
type Publisher struct {
	Client   *Client
	Repo     Repo
	Number   int
	CommitID string
}

// Publish posts the summary comment and one inline comment per candidate.
func (p *Publisher) Publish(ctx context.Context, res *review.Result) error {
	if p.Number <= 0 {
		return fmt.Errorf("publishing review: missing pull request number")
	}
	return p.Client.PostReview(ctx, p.Repo, p.Number, BuildReview(res, p.CommitID))
}

// BuildReview renders res as a review request.
func BuildReview(res *review.Result, commitID string) ReviewRequest {
	req := ReviewRequest{
		CommitID: commitID,
		Body:     output.SummaryComment(res),
		Event:    "COMMENT",
	}
	for _, f := range res.InlineCandidates() {
		req.Comments = append(req.Comments, ReviewComment{
			Path: f.FilePath,
			Line: *f.LineStart,
			Body: output.InlineComment(f),
		})
	}
	return req
}
