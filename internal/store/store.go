// Package store defines the persistence interface for the posting ledger.
//
// The review core is pure and safe to re-run; the ledger is what makes the
// posting step idempotent. Every posted finding is recorded under its
// fingerprint, and every processed webhook delivery is recorded under its
// delivery ID, so redeliveries and retries never produce duplicate
// comments.
package store

import (
	"context"
	"time"
)

// Store is the persistence layer for posted findings and webhook
// deliveries.
type Store interface {
	// MarkPosted records that a finding was posted to a pull request.
	MarkPosted(ctx context.Context, posted PostedFinding) error

	// WasPosted reports whether a finding with this fingerprint was
	// already posted to the given pull request.
	WasPosted(ctx context.Context, owner, repo string, pullNumber int, fingerprint string) (bool, error)

	// ListPosted returns the fingerprints already posted to a pull
	// request, for bulk filtering before a review submission.
	ListPosted(ctx context.Context, owner, repo string, pullNumber int) (map[string]bool, error)

	// MarkDelivery records a webhook delivery ID. It returns false when
	// the delivery was seen before, in which case the event must not be
	// processed again.
	MarkDelivery(ctx context.Context, deliveryID string) (bool, error)

	// Close releases the underlying resources.
	Close() error
}

// PostedFinding is one ledger entry for an inline or general review
// comment.
type PostedFinding struct {
	Owner       string
	Repo        string
	PullNumber  int
	Fingerprint string
	Rule        string
	File        string
	PostedAt    time.Time
}
