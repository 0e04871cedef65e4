// Package post publishes review findings to a pull request as a single
// review with inline comments, guaranteeing at-most-once delivery of
// each finding across repeated runs.
package post

import (
	"context"
	"time"

	"github.com/ttbonn/reviewagent/internal/adapter/github"
	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/domain"
	"github.com/ttbonn/reviewagent/internal/store"
)

// ReviewClient is the subset of the GitHub client the poster needs.
// Declared here so tests can substitute a fake.
type ReviewClient interface {
	CreateReview(ctx context.Context, input github.CreateReviewInput) (*github.CreateReviewResponse, error)
}

// Poster posts findings as pull request reviews. A persistent ledger of
// posted fingerprints filters out findings that were already delivered,
// so re-running a review against the same PR never duplicates comments.
type Poster struct {
	client ReviewClient
	ledger store.Store
	logger httpx.Logger
}

// NewPoster creates a Poster backed by the given client and ledger.
func NewPoster(client ReviewClient, ledger store.Store, logger httpx.Logger) *Poster {
	if logger == nil {
		logger = &httpx.SilentLogger{}
	}
	return &Poster{client: client, ledger: ledger, logger: logger}
}

// Request carries everything needed to post one review.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int
	CommitSHA  string

	// Body is the review summary rendered by the markdown writer.
	Body string

	// Findings are the evaluator results. Inline findings become anchored
	// comments; whole-file findings are carried in the body only.
	Findings []domain.Finding
}

// Result reports what was actually delivered.
type Result struct {
	ReviewID          int64
	CommentsPosted    int
	DuplicatesSkipped int
	HTMLURL           string
}

// Post submits the review. Findings whose fingerprints are already in
// the ledger are dropped before submission. When every finding is a
// duplicate the review is not submitted at all and a zero Result is
// returned.
//
// Ledger writes happen after the review is accepted by the host. A
// failure to record a fingerprint is logged but does not fail the post;
// the worst case is one duplicate comment on a later run.
func (p *Poster) Post(ctx context.Context, req Request) (*Result, error) {
	fresh, skipped, err := p.filterPosted(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 && skipped > 0 {
		return &Result{DuplicatesSkipped: skipped}, nil
	}

	comments := make([]github.ReviewComment, 0, len(fresh))
	for _, f := range fresh {
		if !f.Inline() {
			continue
		}
		comments = append(comments, github.ReviewComment{
			Path: f.File,
			Line: *f.Line,
			Side: "RIGHT",
			Body: f.Message,
		})
	}

	resp, err := p.client.CreateReview(ctx, github.CreateReviewInput{
		Owner:      req.Owner,
		Repo:       req.Repo,
		PullNumber: req.PullNumber,
		CommitSHA:  req.CommitSHA,
		Event:      github.EventComment,
		Body:       req.Body,
		Comments:   comments,
	})
	if err != nil {
		return nil, err
	}

	for _, f := range fresh {
		if err := p.ledger.MarkPosted(ctx, store.PostedFinding{
			Owner:       req.Owner,
			Repo:        req.Repo,
			PullNumber:  req.PullNumber,
			Fingerprint: f.Fingerprint(),
			Rule:        f.Rule,
			File:        f.File,
			PostedAt:    time.Now().UTC(),
		}); err != nil {
			p.logger.LogWarning(ctx, "failed to record posted finding", map[string]interface{}{
				"fingerprint": f.Fingerprint(),
				"error":       err.Error(),
			})
		}
	}

	return &Result{
		ReviewID:          resp.ID,
		CommentsPosted:    len(comments),
		DuplicatesSkipped: skipped,
		HTMLURL:           resp.HTMLURL,
	}, nil
}

// filterPosted splits findings into unseen ones and a duplicate count
// using one ledger read per pull request.
func (p *Poster) filterPosted(ctx context.Context, req Request) ([]domain.Finding, int, error) {
	seen, err := p.ledger.ListPosted(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, 0, err
	}

	var fresh []domain.Finding
	var skipped int
	for _, f := range req.Findings {
		if seen[f.Fingerprint()] {
			skipped++
			continue
		}
		fresh = append(fresh, f)
	}
	return fresh, skipped, nil
}
