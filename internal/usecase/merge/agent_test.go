package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttbonn/reviewagent/internal/adapter/github"
	"github.com/ttbonn/reviewagent/internal/domain"
)

type fakeClient struct {
	pr          domain.PullRequest
	reviews     []domain.ReviewSummary
	status      domain.CombinedStatus
	mergeCalls  int
	mergeMethod string
	deletedRefs []string
	mergeErr    error
}

func (f *fakeClient) GetPullRequest(context.Context, string, string, int) (domain.PullRequest, error) {
	return f.pr, nil
}

func (f *fakeClient) ListReviews(context.Context, string, string, int) ([]domain.ReviewSummary, error) {
	return f.reviews, nil
}

func (f *fakeClient) GetCombinedStatus(context.Context, string, string, string) (domain.CombinedStatus, error) {
	return f.status, nil
}

func (f *fakeClient) MergePullRequest(_ context.Context, _, _ string, _ int, method, _ string) (github.MergeResult, error) {
	f.mergeCalls++
	f.mergeMethod = method
	if f.mergeErr != nil {
		return github.MergeResult{}, f.mergeErr
	}
	return github.MergeResult{SHA: "deadbeef", Merged: true}, nil
}

func (f *fakeClient) DeleteRef(_ context.Context, _, _ string, ref string) error {
	f.deletedRefs = append(f.deletedRefs, ref)
	return nil
}

func mergeablePR() domain.PullRequest {
	mergeable := true
	return domain.PullRequest{
		Number:    7,
		Title:     "feat: add widget",
		State:     "open",
		HeadRef:   "feature/widget",
		HeadSHA:   "abc123",
		Mergeable: &mergeable,
	}
}

func approvedBy(reviewer string) []domain.ReviewSummary {
	return []domain.ReviewSummary{
		{ID: 1, Reviewer: reviewer, State: github.StateApproved, SubmittedAt: "2024-01-10T10:00:00Z"},
	}
}

func TestMergeAllGatesPass(t *testing.T) {
	client := &fakeClient{pr: mergeablePR(), reviews: approvedBy("alice"), status: domain.CombinedStatus{State: "success", TotalCount: 2}}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7, Method: "squash"})
	require.NoError(t, err)

	assert.True(t, res.Assessment.Safe)
	assert.True(t, res.Merged)
	assert.Equal(t, "deadbeef", res.SHA)
	assert.Equal(t, "squash", client.mergeMethod)
	assert.Empty(t, client.deletedRefs)
}

func TestMergeDeletesBranch(t *testing.T) {
	client := &fakeClient{pr: mergeablePR(), reviews: approvedBy("alice"), status: domain.CombinedStatus{State: "success", TotalCount: 1}}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7, DeleteBranch: true})
	require.NoError(t, err)

	assert.True(t, res.BranchDeleted)
	assert.Equal(t, []string{"heads/feature/widget"}, client.deletedRefs)
}

func TestMergeBlockedWhenClosed(t *testing.T) {
	pr := mergeablePR()
	pr.State = "closed"
	client := &fakeClient{pr: pr}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7})
	require.NoError(t, err)

	assert.False(t, res.Merged)
	assert.Equal(t, 0, client.mergeCalls)
	require.NotNil(t, res.Assessment.FailedGate())
	assert.Equal(t, GateOpen, res.Assessment.FailedGate().Name)
}

func TestMergeBlockedWhenMergeabilityPending(t *testing.T) {
	pr := mergeablePR()
	pr.Mergeable = nil
	client := &fakeClient{pr: pr, reviews: approvedBy("alice"), status: domain.CombinedStatus{State: "success", TotalCount: 1}}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7})
	require.NoError(t, err)

	assert.False(t, res.Merged)
	assert.Equal(t, GateMergeable, res.Assessment.FailedGate().Name)
}

func TestMergeBlockedByChangeRequest(t *testing.T) {
	client := &fakeClient{
		pr: mergeablePR(),
		reviews: []domain.ReviewSummary{
			{ID: 1, Reviewer: "alice", State: github.StateChangesRequested, SubmittedAt: "2024-01-10T10:00:00Z"},
		},
		status: domain.CombinedStatus{State: "success", TotalCount: 1},
	}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7})
	require.NoError(t, err)

	assert.False(t, res.Merged)
	gate := res.Assessment.FailedGate()
	require.NotNil(t, gate)
	assert.Equal(t, GateReviews, gate.Name)
	assert.Contains(t, gate.Detail, "alice")
}

func TestLaterApprovalSupersedesChangeRequest(t *testing.T) {
	client := &fakeClient{
		pr: mergeablePR(),
		reviews: []domain.ReviewSummary{
			{ID: 1, Reviewer: "alice", State: github.StateChangesRequested, SubmittedAt: "2024-01-10T10:00:00Z"},
			{ID: 2, Reviewer: "alice", State: github.StateApproved, SubmittedAt: "2024-01-11T09:00:00Z"},
		},
		status: domain.CombinedStatus{State: "success", TotalCount: 1},
	}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7})
	require.NoError(t, err)

	assert.True(t, res.Merged)
}

func TestCommentedReviewCarriesNoVerdict(t *testing.T) {
	reviews := []domain.ReviewSummary{
		{ID: 1, Reviewer: "bot", State: github.StateCommented, SubmittedAt: "2024-01-10T10:00:00Z"},
		{ID: 2, Reviewer: "alice", State: github.StateApproved, SubmittedAt: "2024-01-10T11:00:00Z"},
	}
	gate := checkReviews(reviews)
	assert.True(t, gate.Passed)
}

func TestNoApprovalBlocks(t *testing.T) {
	gate := checkReviews(nil)
	assert.False(t, gate.Passed)
	assert.Equal(t, "no approving review", gate.Detail)
}

func TestMergeBlockedByFailingStatus(t *testing.T) {
	client := &fakeClient{pr: mergeablePR(), reviews: approvedBy("alice"), status: domain.CombinedStatus{State: "failure", TotalCount: 3}}
	agent := NewAgent(client, nil)

	res, err := agent.Merge(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 7})
	require.NoError(t, err)

	assert.False(t, res.Merged)
	assert.Equal(t, GateStatus, res.Assessment.FailedGate().Name)
}

func TestNoStatusesPasses(t *testing.T) {
	gate := checkStatus(domain.CombinedStatus{State: "pending", TotalCount: 0})
	assert.True(t, gate.Passed)
}
