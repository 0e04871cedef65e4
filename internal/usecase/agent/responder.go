// Package agent responds to newly opened issues by committing a
// timestamped acknowledgement file and commenting on the issue.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/domain"
)

// Client is the subset of the GitHub adapter the responder needs.
type Client interface {
	CreateFile(ctx context.Context, owner, repo, path, branch, message string, content []byte) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, comment string) error
}

// Responder handles issue-opened events.
type Responder struct {
	client Client
	logger httpx.Logger
	now    func() time.Time

	// Branch is where response files are committed. Empty means the
	// repository default branch.
	Branch string
}

// NewResponder constructs a Responder.
func NewResponder(client Client, logger httpx.Logger) *Responder {
	if logger == nil {
		logger = &httpx.SilentLogger{}
	}
	return &Responder{client: client, logger: logger, now: time.Now}
}

// Respond commits an acknowledgement file for the issue and leaves a
// comment pointing at it. The file path embeds the issue number and a
// UTC timestamp so repeated events never collide.
func (r *Responder) Respond(ctx context.Context, owner, repo string, issue domain.Issue) error {
	stamp := r.now().UTC().Format("20060102-150405")
	path := fmt.Sprintf("responses/issue-%d-%s.md", issue.Number, stamp)

	content := fmt.Sprintf(
		"# Response to issue #%d\n\n**Title:** %s\n\n**Opened by:** %s\n\n"+
			"Acknowledged at %s. This file was committed automatically.\n",
		issue.Number, issue.Title, issue.Author, r.now().UTC().Format(time.RFC3339))

	message := fmt.Sprintf("Acknowledge issue #%d", issue.Number)
	if err := r.client.CreateFile(ctx, owner, repo, path, r.Branch, message, []byte(content)); err != nil {
		return fmt.Errorf("commit response file: %w", err)
	}

	comment := fmt.Sprintf(
		"Thanks for opening this issue. An acknowledgement was committed at `%s`.", path)
	if err := r.client.CreateIssueComment(ctx, owner, repo, issue.Number, comment); err != nil {
		return fmt.Errorf("comment on issue #%d: %w", issue.Number, err)
	}

	r.logger.LogInfo(ctx, "responded to issue", map[string]interface{}{
		"issue": issue.Number,
		"file":  path,
	})
	return nil
}
