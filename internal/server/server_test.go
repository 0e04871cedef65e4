package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttbonn/reviewagent/internal/adapter/store/sqlite"
	"github.com/ttbonn/reviewagent/internal/domain"
	reviewrun "github.com/ttbonn/reviewagent/internal/usecase/review"
)

type fakeReviewer struct {
	mu       sync.Mutex
	requests []reviewrun.Request
	done     chan struct{}
}

func (f *fakeReviewer) Run(_ context.Context, req reviewrun.Request) (*reviewrun.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return &reviewrun.Result{}, nil
}

type fakeResponder struct {
	mu     sync.Mutex
	issues []domain.Issue
	done   chan struct{}
}

func (f *fakeResponder) Respond(_ context.Context, _, _ string, issue domain.Issue) error {
	f.mu.Lock()
	f.issues = append(f.issues, issue)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return nil
}

func newTestServer(t *testing.T, reviewer *fakeReviewer, responder *fakeResponder) *Server {
	t.Helper()
	ledger, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	return New(Config{Port: 0, QueueSize: 8, Workers: 1}, reviewer, responder, ledger, nil)
}

func postWebhook(s *Server, event, deliveryID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	if deliveryID != "" {
		req.Header.Set("X-GitHub-Delivery", deliveryID)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t, &fakeReviewer{}, &fakeResponder{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var card map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "reviewagent", card["service"])

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestPingEvent(t *testing.T) {
	s := newTestServer(t, &fakeReviewer{}, &fakeResponder{})

	rec := postWebhook(s, "ping", "d1", `{"zen":"Keep it logically awesome."}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
}

func TestPullRequestOpenedQueuesReview(t *testing.T) {
	reviewer := &fakeReviewer{done: make(chan struct{})}
	s := newTestServer(t, reviewer, &fakeResponder{})

	body := `{"action":"opened","number":42,"repository":{"name":"widgets","full_name":"octo/widgets","owner":{"login":"octo"}}}`
	rec := postWebhook(s, "pull_request", "d2", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-reviewer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("review job never ran")
	}

	reviewer.mu.Lock()
	defer reviewer.mu.Unlock()
	require.Len(t, reviewer.requests, 1)
	assert.Equal(t, "octo", reviewer.requests[0].Owner)
	assert.Equal(t, "widgets", reviewer.requests[0].Repo)
	assert.Equal(t, 42, reviewer.requests[0].PullNumber)
}

func TestPullRequestClosedIgnored(t *testing.T) {
	reviewer := &fakeReviewer{}
	s := newTestServer(t, reviewer, &fakeResponder{})

	body := `{"action":"closed","number":42,"repository":{"name":"widgets","owner":{"login":"octo"}}}`
	rec := postWebhook(s, "pull_request", "d3", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "action ignored")
}

func TestIssuesOpenedQueuesResponse(t *testing.T) {
	responder := &fakeResponder{done: make(chan struct{})}
	s := newTestServer(t, &fakeReviewer{}, responder)

	body := `{"action":"opened","repository":{"name":"widgets","owner":{"login":"octo"}},"issue":{"number":17,"title":"broken","user":{"login":"alice"}}}`
	rec := postWebhook(s, "issues", "d4", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-responder.done:
	case <-time.After(2 * time.Second):
		t.Fatal("responder job never ran")
	}

	responder.mu.Lock()
	defer responder.mu.Unlock()
	require.Len(t, responder.issues, 1)
	assert.Equal(t, 17, responder.issues[0].Number)
	assert.Equal(t, "alice", responder.issues[0].Author)
}

func TestDuplicateDeliveryIgnored(t *testing.T) {
	reviewer := &fakeReviewer{done: make(chan struct{})}
	s := newTestServer(t, reviewer, &fakeResponder{})

	body := `{"action":"opened","number":42,"repository":{"name":"widgets","owner":{"login":"octo"}}}`
	rec := postWebhook(s, "pull_request", "same-id", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	<-reviewer.done

	rec = postWebhook(s, "pull_request", "same-id", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate delivery ignored")

	reviewer.mu.Lock()
	defer reviewer.mu.Unlock()
	assert.Len(t, reviewer.requests, 1)
}

func TestUnknownEventAccepted(t *testing.T) {
	s := newTestServer(t, &fakeReviewer{}, &fakeResponder{})

	rec := postWebhook(s, "watch", "d5", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event ignored")
}

func TestPushEventLogged(t *testing.T) {
	s := newTestServer(t, &fakeReviewer{}, &fakeResponder{})

	body := `{"ref":"refs/heads/main","repository":{"full_name":"octo/widgets"},"commits":[{"id":"abc","message":"m"}]}`
	rec := postWebhook(s, "push", "d6", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "push logged")
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	var ran int
	var mu sync.Mutex
	d := NewDispatcher(4, 1, nil)

	for i := 0; i < 3; i++ {
		ok := d.Enqueue(Job{Name: "n", Run: func(context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}})
		require.True(t, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, ran)

	assert.False(t, d.Enqueue(Job{Name: "late", Run: func(context.Context) error { return nil }}))
}
