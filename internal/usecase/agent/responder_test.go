package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttbonn/reviewagent/internal/domain"
)

type fakeClient struct {
	filePath    string
	fileContent string
	comment     string
	fileErr     error
	commentErr  error
}

func (f *fakeClient) CreateFile(_ context.Context, _, _ string, path, _, _ string, content []byte) error {
	if f.fileErr != nil {
		return f.fileErr
	}
	f.filePath = path
	f.fileContent = string(content)
	return nil
}

func (f *fakeClient) CreateIssueComment(_ context.Context, _, _ string, _ int, comment string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comment = comment
	return nil
}

func newResponder(client *fakeClient) *Responder {
	r := NewResponder(client, nil)
	r.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }
	return r
}

func TestRespondCommitsAndComments(t *testing.T) {
	client := &fakeClient{}
	r := newResponder(client)

	issue := domain.Issue{Number: 17, Title: "Widgets are broken", Author: "alice"}
	err := r.Respond(context.Background(), "octo", "widgets", issue)
	require.NoError(t, err)

	assert.Equal(t, "responses/issue-17-20240115-103000.md", client.filePath)
	assert.Contains(t, client.fileContent, "Widgets are broken")
	assert.Contains(t, client.fileContent, "alice")
	assert.Contains(t, client.comment, client.filePath)
}

func TestRespondFailsOnCommitError(t *testing.T) {
	client := &fakeClient{fileErr: assert.AnError}
	r := newResponder(client)

	err := r.Respond(context.Background(), "octo", "widgets", domain.Issue{Number: 17})
	require.Error(t, err)
	assert.Empty(t, client.comment, "no comment after failed commit")
}

func TestRespondFailsOnCommentError(t *testing.T) {
	client := &fakeClient{commentErr: assert.AnError}
	r := newResponder(client)

	err := r.Respond(context.Background(), "octo", "widgets", domain.Issue{Number: 17})
	require.Error(t, err)
	assert.NotEmpty(t, client.filePath)
}
