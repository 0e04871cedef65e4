package github

import (
	"github.com/ttbonn/reviewagent/internal/domain"
)

// ReviewEvent is the review action submitted with a PR review.
type ReviewEvent string

const (
	EventComment        ReviewEvent = "COMMENT"
	EventApprove        ReviewEvent = "APPROVE"
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// Review states as reported by the reviews listing endpoint.
const (
	StateApproved         = "APPROVED"
	StateChangesRequested = "CHANGES_REQUESTED"
	StateCommented        = "COMMENTED"
	StateDismissed        = "DISMISSED"
	StatePending          = "PENDING"
)

// ReviewComment is one inline comment in a review submission, anchored to
// a line on the RIGHT (new) side of the diff.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side"`
	Body string `json:"body"`
}

// CreateReviewInput contains all data needed to create a PR review.
type CreateReviewInput struct {
	Owner      string
	Repo       string
	PullNumber int
	CommitSHA  string
	Event      ReviewEvent
	Body       string
	Comments   []ReviewComment
}

// CreateReviewResponse is the relevant subset of the review-creation reply.
type CreateReviewResponse struct {
	ID      int64  `json:"id"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
}

// MergeResult reports the outcome of a merge call.
type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// userPayload is the nested author object on PRs, issues, and reviews.
type userPayload struct {
	Login string `json:"login"`
}

// refPayload is the nested head/base object on a pull request.
type refPayload struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// pullRequestPayload is the wire shape of a pull request.
type pullRequestPayload struct {
	Number    int         `json:"number"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	State     string      `json:"state"`
	User      userPayload `json:"user"`
	Head      refPayload  `json:"head"`
	Base      refPayload  `json:"base"`
	Mergeable *bool       `json:"mergeable"`
	Merged    bool        `json:"merged"`
	Draft     bool        `json:"draft"`
	HTMLURL   string      `json:"html_url"`
}

func (p pullRequestPayload) toDomain() domain.PullRequest {
	return domain.PullRequest{
		Number:    p.Number,
		Title:     p.Title,
		Body:      p.Body,
		State:     p.State,
		Author:    p.User.Login,
		HeadRef:   p.Head.Ref,
		HeadSHA:   p.Head.SHA,
		BaseRef:   p.Base.Ref,
		Mergeable: p.Mergeable,
		Merged:    p.Merged,
		Draft:     p.Draft,
		HTMLURL:   p.HTMLURL,
	}
}

// filePayload is the wire shape of one entry in the changed-files listing.
type filePayload struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
	SHA       string `json:"sha"`
}

func (p filePayload) toDomain() domain.FileChange {
	return domain.FileChange{
		Path:      p.Filename,
		Patch:     p.Patch,
		Additions: p.Additions,
		Deletions: p.Deletions,
		Status:    p.Status,
		SHA:       p.SHA,
	}
}

// reviewPayload is the wire shape of one entry in the reviews listing.
type reviewPayload struct {
	ID          int64       `json:"id"`
	User        userPayload `json:"user"`
	State       string      `json:"state"`
	SubmittedAt string      `json:"submitted_at"`
}

func (p reviewPayload) toDomain() domain.ReviewSummary {
	return domain.ReviewSummary{
		ID:          p.ID,
		Reviewer:    p.User.Login,
		State:       p.State,
		SubmittedAt: p.SubmittedAt,
	}
}

// issuePayload is the wire shape of an issue.
type issuePayload struct {
	Number  int         `json:"number"`
	Title   string      `json:"title"`
	Body    string      `json:"body"`
	State   string      `json:"state"`
	User    userPayload `json:"user"`
	HTMLURL string      `json:"html_url"`
}

func (p issuePayload) toDomain() domain.Issue {
	return domain.Issue{
		Number:  p.Number,
		Title:   p.Title,
		Body:    p.Body,
		State:   p.State,
		Author:  p.User.Login,
		HTMLURL: p.HTMLURL,
	}
}

// combinedStatusPayload is the wire shape of the combined commit status.
type combinedStatusPayload struct {
	State      string `json:"state"`
	TotalCount int    `json:"total_count"`
}
