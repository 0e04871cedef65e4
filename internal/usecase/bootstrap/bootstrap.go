// Package bootstrap sets up a demo review scenario in a repository: a
// tracking issue, a branch with deliberately flawed sample files, and a
// pull request for the reviewer to exercise against.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/domain"
)

// Client is the subset of the GitHub adapter the scaffolder needs.
type Client interface {
	CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (domain.Issue, error)
	GetRef(ctx context.Context, owner, repo, ref string) (string, error)
	CreateRef(ctx context.Context, owner, repo, ref, sha string) error
	CreateFile(ctx context.Context, owner, repo, path, branch, message string, content []byte) error
	CreatePull(ctx context.Context, owner, repo, title, body, head, base string) (domain.PullRequest, error)
}

// Scaffolder creates the demo scenario.
type Scaffolder struct {
	client Client
	logger httpx.Logger
	now    func() time.Time
}

// NewScaffolder constructs a Scaffolder.
func NewScaffolder(client Client, logger httpx.Logger) *Scaffolder {
	if logger == nil {
		logger = &httpx.SilentLogger{}
	}
	return &Scaffolder{client: client, logger: logger, now: time.Now}
}

// Request configures the scenario.
type Request struct {
	Owner string
	Repo  string

	// BaseBranch is the branch the demo branches off, usually main.
	BaseBranch string
}

// Result reports what was created.
type Result struct {
	Issue  domain.Issue
	Branch string
	Pull   domain.PullRequest
}

// sampleFile is one deliberately flawed file committed to the demo
// branch. Each flaw corresponds to a review rule so the resulting PR
// produces findings.
type sampleFile struct {
	path    string
	content string
}

var sampleFiles = []sampleFile{
	{
		path: "demo/app.py",
		content: `import os
from utils import *

def process(data):
    # TODO: handle empty input
    print("processing", data)
    password = "hunter2-not-a-real-secret"
    return [d.strip() for d in data]
`,
	},
	{
		path: "demo/client.js",
		content: `var endpoint = "https://api.example.com";

function fetchData() {
  console.log("fetching from", endpoint);
  var results = [];
  return results;
}
`,
	},
}

// Run executes the full scenario: issue, branch, files, pull request.
// Steps are sequential and a failure aborts the run; anything already
// created is left in place for manual cleanup.
func (s *Scaffolder) Run(ctx context.Context, req Request) (*Result, error) {
	base := req.BaseBranch
	if base == "" {
		base = "main"
	}

	stamp := s.now().UTC().Format("20060102-150405")
	branch := "demo/review-target-" + stamp

	issueBody := fmt.Sprintf(
		"This issue tracks a demo pull request containing intentionally "+
			"flawed sample code for the automated reviewer.\n\n"+
			"Branch: `%s`\n\nThe PR should surface findings for print calls, "+
			"TODO comments, wildcard imports, console.log, var declarations, "+
			"and a hardcoded credential.", branch)

	issue, err := s.client.CreateIssue(ctx, req.Owner, req.Repo,
		"Demo: exercise the automated code reviewer", issueBody, []string{"demo"})
	if err != nil {
		return nil, fmt.Errorf("create tracking issue: %w", err)
	}
	s.logger.LogInfo(ctx, "created tracking issue", map[string]interface{}{"issue": issue.Number})

	baseSHA, err := s.client.GetRef(ctx, req.Owner, req.Repo, "heads/"+base)
	if err != nil {
		return nil, fmt.Errorf("resolve base branch %s: %w", base, err)
	}

	if err := s.client.CreateRef(ctx, req.Owner, req.Repo, "heads/"+branch, baseSHA); err != nil {
		return nil, fmt.Errorf("create branch %s: %w", branch, err)
	}

	for _, f := range sampleFiles {
		message := fmt.Sprintf("Add sample file %s for review demo", f.path)
		if err := s.client.CreateFile(ctx, req.Owner, req.Repo, f.path, branch, message, []byte(f.content)); err != nil {
			return nil, fmt.Errorf("commit %s: %w", f.path, err)
		}
	}

	prBody := fmt.Sprintf(
		"Sample changes with intentional issues for the automated reviewer.\n\n"+
			"Tracking issue: #%d", issue.Number)

	pull, err := s.client.CreatePull(ctx, req.Owner, req.Repo,
		"Demo: sample changes for automated review", prBody, branch, base)
	if err != nil {
		return nil, fmt.Errorf("open pull request: %w", err)
	}
	s.logger.LogInfo(ctx, "opened demo pull request", map[string]interface{}{"pr": pull.Number})

	return &Result{Issue: issue, Branch: branch, Pull: pull}, nil
}
