package post

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttbonn/reviewagent/internal/adapter/github"
	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/adapter/store/sqlite"
	"github.com/ttbonn/reviewagent/internal/domain"
	"github.com/ttbonn/reviewagent/internal/store"
)

type fakeClient struct {
	inputs []github.CreateReviewInput
	err    error
}

func (f *fakeClient) CreateReview(_ context.Context, input github.CreateReviewInput) (*github.CreateReviewResponse, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &github.CreateReviewResponse{ID: int64(len(f.inputs)), State: "COMMENTED", HTMLURL: "https://example.test/review"}, nil
}

func newTestPoster(t *testing.T) (*Poster, *fakeClient) {
	t.Helper()
	ledger, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	client := &fakeClient{}
	return NewPoster(client, ledger, nil), client
}

type failingLedger struct {
	store.Store
}

func (failingLedger) MarkPosted(context.Context, store.PostedFinding) error {
	return assert.AnError
}

type warningRecorder struct {
	httpx.SilentLogger
	warnings []string
}

func (w *warningRecorder) LogWarning(_ context.Context, message string, _ map[string]interface{}) {
	w.warnings = append(w.warnings, message)
}

func sampleFindings() []domain.Finding {
	return []domain.Finding{
		{File: "app.py", Rule: "todo-comment", Message: "unresolved TODO/FIXME"},
		{File: "app.py", Rule: "print-call", Message: "use structured logging instead of print", Line: domain.IntPtr(4)},
	}
}

func TestPostSubmitsInlineComments(t *testing.T) {
	poster, client := newTestPoster(t)

	res, err := poster.Post(context.Background(), Request{
		Owner:      "octo",
		Repo:       "widgets",
		PullNumber: 42,
		CommitSHA:  "abc123",
		Body:       "summary",
		Findings:   sampleFindings(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.CommentsPosted)
	assert.Equal(t, 0, res.DuplicatesSkipped)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, github.EventComment, input.Event)
	assert.Equal(t, "summary", input.Body)
	require.Len(t, input.Comments, 1)
	assert.Equal(t, "app.py", input.Comments[0].Path)
	assert.Equal(t, 4, input.Comments[0].Line)
	assert.Equal(t, "RIGHT", input.Comments[0].Side)
}

func TestPostSkipsAlreadyPostedFindings(t *testing.T) {
	poster, client := newTestPoster(t)
	req := Request{Owner: "octo", Repo: "widgets", PullNumber: 42, CommitSHA: "abc123", Body: "summary", Findings: sampleFindings()}

	_, err := poster.Post(context.Background(), req)
	require.NoError(t, err)

	res, err := poster.Post(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, res.CommentsPosted)
	assert.Equal(t, 2, res.DuplicatesSkipped)
	assert.Zero(t, res.ReviewID)
	assert.Len(t, client.inputs, 1, "no second review submitted")
}

func TestPostPartialDuplicate(t *testing.T) {
	poster, client := newTestPoster(t)
	findings := sampleFindings()

	_, err := poster.Post(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 42, Findings: findings[:1]})
	require.NoError(t, err)

	res, err := poster.Post(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 42, Findings: findings})
	require.NoError(t, err)

	assert.Equal(t, 1, res.DuplicatesSkipped)
	assert.Equal(t, 1, res.CommentsPosted)
	assert.Len(t, client.inputs, 2)
}

func TestPostLedgerWriteFailureIsWarnedNotFatal(t *testing.T) {
	ledger, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	recorder := &warningRecorder{}
	poster := NewPoster(&fakeClient{}, failingLedger{Store: ledger}, recorder)

	res, err := poster.Post(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 42, Findings: sampleFindings()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CommentsPosted)

	require.Len(t, recorder.warnings, 2)
	assert.Equal(t, "failed to record posted finding", recorder.warnings[0])
}

func TestPostClientErrorLeavesLedgerClean(t *testing.T) {
	poster, client := newTestPoster(t)
	client.err = assert.AnError

	_, err := poster.Post(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 42, Findings: sampleFindings()})
	require.Error(t, err)

	// A failed submission must not mark anything posted.
	client.err = nil
	res, err := poster.Post(context.Background(), Request{Owner: "octo", Repo: "widgets", PullNumber: 42, Findings: sampleFindings()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.DuplicatesSkipped)
}
