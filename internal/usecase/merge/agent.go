// Package merge implements the merge-safety agent. It inspects a pull
// request's state, reviews, and commit statuses, and merges only when
// every gate passes.
package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/ttbonn/reviewagent/internal/adapter/github"
	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/domain"
)

// Client is the subset of the GitHub adapter the agent needs.
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, pullNumber int) (domain.PullRequest, error)
	ListReviews(ctx context.Context, owner, repo string, pullNumber int) ([]domain.ReviewSummary, error)
	GetCombinedStatus(ctx context.Context, owner, repo, ref string) (domain.CombinedStatus, error)
	MergePullRequest(ctx context.Context, owner, repo string, pullNumber int, method, commitTitle string) (github.MergeResult, error)
	DeleteRef(ctx context.Context, owner, repo, ref string) error
}

// Agent decides whether a pull request is safe to merge and performs
// the merge when it is.
type Agent struct {
	client Client
	logger httpx.Logger
}

// NewAgent constructs a merge agent.
func NewAgent(client Client, logger httpx.Logger) *Agent {
	if logger == nil {
		logger = &httpx.SilentLogger{}
	}
	return &Agent{client: client, logger: logger}
}

// Gate names, in evaluation order.
const (
	GateOpen      = "pull request open"
	GateMergeable = "no merge conflicts"
	GateReviews   = "approved with no outstanding change requests"
	GateStatus    = "commit statuses passing"
)

// GateResult is the outcome of one safety gate.
type GateResult struct {
	Name   string
	Passed bool
	Detail string
}

// Assessment is the full safety verdict for a pull request.
type Assessment struct {
	Safe  bool
	Gates []GateResult
}

// FailedGate returns the first gate that did not pass, or nil.
func (a Assessment) FailedGate() *GateResult {
	for i := range a.Gates {
		if !a.Gates[i].Passed {
			return &a.Gates[i]
		}
	}
	return nil
}

// Request configures a merge attempt.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int

	// Method is the merge strategy: merge, squash, or rebase.
	Method string

	// DeleteBranch removes the head ref after a successful merge.
	DeleteBranch bool
}

// Result reports the merge outcome.
type Result struct {
	Assessment    Assessment
	Merged        bool
	SHA           string
	BranchDeleted bool
}

// Assess evaluates every safety gate without merging. All gates are
// evaluated even after one fails, so callers can present the complete
// picture.
func (a *Agent) Assess(ctx context.Context, owner, repo string, pullNumber int) (Assessment, domain.PullRequest, error) {
	pr, err := a.client.GetPullRequest(ctx, owner, repo, pullNumber)
	if err != nil {
		return Assessment{}, pr, fmt.Errorf("fetch pull request: %w", err)
	}

	assessment := Assessment{Safe: true}
	add := func(g GateResult) {
		assessment.Gates = append(assessment.Gates, g)
		if !g.Passed {
			assessment.Safe = false
		}
	}

	add(checkOpen(pr))
	add(checkMergeable(pr))

	reviews, err := a.client.ListReviews(ctx, owner, repo, pullNumber)
	if err != nil {
		return Assessment{}, pr, fmt.Errorf("list reviews: %w", err)
	}
	add(checkReviews(reviews))

	status, err := a.client.GetCombinedStatus(ctx, owner, repo, pr.HeadSHA)
	if err != nil {
		return Assessment{}, pr, fmt.Errorf("fetch combined status: %w", err)
	}
	add(checkStatus(status))

	return assessment, pr, nil
}

// Merge assesses the pull request and merges it when every gate passes.
// When a gate fails no merge is attempted and Result.Merged is false.
func (a *Agent) Merge(ctx context.Context, req Request) (*Result, error) {
	assessment, pr, err := a.Assess(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, err
	}

	result := &Result{Assessment: assessment}
	if !assessment.Safe {
		gate := assessment.FailedGate()
		a.logger.LogInfo(ctx, "merge blocked", map[string]interface{}{
			"pr":     req.PullNumber,
			"gate":   gate.Name,
			"detail": gate.Detail,
		})
		return result, nil
	}

	method := req.Method
	if method == "" {
		method = "merge"
	}
	title := fmt.Sprintf("%s (#%d)", pr.Title, pr.Number)

	merged, err := a.client.MergePullRequest(ctx, req.Owner, req.Repo, req.PullNumber, method, title)
	if err != nil {
		return nil, fmt.Errorf("merge pull request: %w", err)
	}
	result.Merged = merged.Merged
	result.SHA = merged.SHA

	if req.DeleteBranch && merged.Merged {
		ref := "heads/" + pr.HeadRef
		if err := a.client.DeleteRef(ctx, req.Owner, req.Repo, ref); err != nil {
			a.logger.LogWarning(ctx, "failed to delete branch", map[string]interface{}{
				"ref":   ref,
				"error": err.Error(),
			})
		} else {
			result.BranchDeleted = true
		}
	}

	return result, nil
}

func checkOpen(pr domain.PullRequest) GateResult {
	if !pr.Open() {
		return GateResult{Name: GateOpen, Detail: fmt.Sprintf("state is %s", pr.State)}
	}
	if pr.Merged {
		return GateResult{Name: GateOpen, Detail: "already merged"}
	}
	return GateResult{Name: GateOpen, Passed: true}
}

func checkMergeable(pr domain.PullRequest) GateResult {
	// GitHub computes mergeability lazily; a nil value means the check is
	// still pending and merging now would race it.
	if pr.Mergeable == nil {
		return GateResult{Name: GateMergeable, Detail: "mergeability not yet computed, retry shortly"}
	}
	if !*pr.Mergeable {
		return GateResult{Name: GateMergeable, Detail: "merge conflicts with base branch"}
	}
	return GateResult{Name: GateMergeable, Passed: true}
}

// checkReviews requires at least one approval and blocks on any
// reviewer whose latest substantive review requests changes. A later
// approval from the same reviewer supersedes their earlier change
// request; COMMENTED and DISMISSED reviews carry no verdict.
func checkReviews(reviews []domain.ReviewSummary) GateResult {
	sorted := make([]domain.ReviewSummary, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt < sorted[j].SubmittedAt
	})

	latest := make(map[string]string)
	for _, r := range sorted {
		switch r.State {
		case github.StateApproved, github.StateChangesRequested:
			latest[r.Reviewer] = r.State
		}
	}

	var blockers []string
	approvals := 0
	for reviewer, state := range latest {
		switch state {
		case github.StateChangesRequested:
			blockers = append(blockers, reviewer)
		case github.StateApproved:
			approvals++
		}
	}
	if len(blockers) > 0 {
		sort.Strings(blockers)
		return GateResult{Name: GateReviews, Detail: fmt.Sprintf("changes requested by %v", blockers)}
	}
	if approvals == 0 {
		return GateResult{Name: GateReviews, Detail: "no approving review"}
	}
	return GateResult{Name: GateReviews, Passed: true}
}

// checkStatus passes when the combined status is success, or when the
// repository reports no statuses at all.
func checkStatus(status domain.CombinedStatus) GateResult {
	if status.TotalCount == 0 {
		return GateResult{Name: GateStatus, Passed: true, Detail: "no statuses reported"}
	}
	if status.State != "success" {
		return GateResult{Name: GateStatus, Detail: fmt.Sprintf("combined status is %s", status.State)}
	}
	return GateResult{Name: GateStatus, Passed: true}
}
