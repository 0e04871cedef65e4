package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// FileChange describes one changed file in a pull request, as reported by
// the source-control host's changed-files listing.
type FileChange struct {
	// Path is the file path relative to the repository root.
	Path string

	// Patch is the raw unified-diff text for this file. May be empty for
	// binary files, renames without content changes, or very large diffs.
	Patch string

	// Additions and Deletions are the host-reported line counts.
	Additions int
	Deletions int

	// Status is one of the FileStatus constants.
	Status string

	// SHA identifies the blob/commit used to anchor inline comments.
	SHA string
}

// Finding is a single issue flagged for a file during review.
type Finding struct {
	// File is the path of the file the finding applies to.
	File string

	// Rule identifies which review rule produced the finding.
	Rule string

	// Message is the human-readable description of the issue.
	Message string

	// Line is the line number in the new file version the finding anchors
	// to, or nil for whole-file findings.
	Line *int
}

// Fingerprint returns a deterministic identifier for the finding, used to
// guarantee at-most-once posting of each comment. Two findings with the
// same file, rule, and line produce the same fingerprint.
func (f Finding) Fingerprint() string {
	line := -1
	if f.Line != nil {
		line = *f.Line
	}
	payload := fmt.Sprintf("%s|%s|%d", f.File, f.Rule, line)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Inline reports whether the finding anchors to a specific added line.
func (f Finding) Inline() bool {
	return f.Line != nil
}

// PullRequest captures the subset of pull request metadata the agent needs.
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	State     string
	Author    string
	HeadRef   string
	HeadSHA   string
	BaseRef   string
	Mergeable *bool
	Merged    bool
	Draft     bool
	HTMLURL   string
}

// Open reports whether the pull request is still open.
func (pr PullRequest) Open() bool {
	return pr.State == "open"
}

// Issue captures the subset of issue metadata the agent needs.
type Issue struct {
	Number  int
	Title   string
	Body    string
	State   string
	Author  string
	HTMLURL string
}

// ReviewSummary is an existing review on a pull request, used by the
// merge-safety checks.
type ReviewSummary struct {
	ID          int64
	Reviewer    string
	State       string // APPROVED, CHANGES_REQUESTED, COMMENTED, DISMISSED
	SubmittedAt string
}

// CombinedStatus is the aggregate commit status for a ref.
type CombinedStatus struct {
	State      string // success, failure, pending
	TotalCount int
}

// IntPtr returns a pointer to the given int value.
func IntPtr(n int) *int {
	return &n
}
