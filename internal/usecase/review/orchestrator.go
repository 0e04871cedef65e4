// Package review orchestrates one review run against a pull request:
// fetch metadata, honor skip triggers, evaluate every changed file, and
// hand the findings to the poster.
package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/diff"
	"github.com/ttbonn/reviewagent/internal/domain"
	rules "github.com/ttbonn/reviewagent/internal/review"
	"github.com/ttbonn/reviewagent/internal/usecase/post"
	"github.com/ttbonn/reviewagent/internal/usecase/skip"
)

// defaultWorkers bounds the per-file evaluation fan-out.
const defaultWorkers = 4

// Client is the subset of the GitHub adapter the orchestrator needs.
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, pullNumber int) (domain.PullRequest, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, pullNumber int) ([]domain.FileChange, error)
}

// Poster publishes the assembled findings.
type Poster interface {
	Post(ctx context.Context, req post.Request) (*post.Result, error)
}

// BodyRenderer renders the review summary body.
type BodyRenderer interface {
	ReviewBody(repository string, pullNumber int, files int, findings []domain.Finding) string
	WriteReport(outputDir, repository string, pullNumber int, body string) (string, error)
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Client   Client
	Poster   Poster
	Renderer BodyRenderer
	Logger   httpx.Logger

	// Workers bounds concurrent file evaluation. Zero means the default.
	Workers int
}

// Orchestrator runs reviews end to end.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator validates deps and constructs an Orchestrator.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("review orchestrator requires a GitHub client")
	}
	if deps.Poster == nil {
		return nil, fmt.Errorf("review orchestrator requires a poster")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("review orchestrator requires a renderer")
	}
	if deps.Logger == nil {
		deps.Logger = &httpx.SilentLogger{}
	}
	if deps.Workers <= 0 {
		deps.Workers = defaultWorkers
	}
	return &Orchestrator{deps: deps}, nil
}

// Request identifies the pull request to review.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int

	// Force reviews the PR even when a skip trigger is present.
	Force bool

	// DryRun evaluates and renders but does not post.
	DryRun bool

	// OutputDir, when non-empty, additionally saves the review body as a
	// Markdown report file.
	OutputDir string
}

// Result summarises one run.
type Result struct {
	Skipped       bool
	SkipReason    string
	FilesReviewed int
	Findings      []domain.Finding
	Body          string
	Post          *post.Result
	ReportPath    string
	Duration      time.Duration
}

// Run executes a full review of the pull request. Files are evaluated
// concurrently but findings are assembled in the changed-files listing
// order, so repeated runs over the same diff produce identical output.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	repository := fmt.Sprintf("%s/%s", req.Owner, req.Repo)

	pr, err := o.deps.Client.GetPullRequest(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request: %w", err)
	}

	if !pr.Open() {
		return &Result{Skipped: true, SkipReason: fmt.Sprintf("pull request is %s", pr.State), Duration: time.Since(start)}, nil
	}
	if !req.Force {
		if decision := skip.Check(pr); decision.Skip {
			o.deps.Logger.LogInfo(ctx, "review skipped", map[string]interface{}{
				"repository": repository,
				"pr":         req.PullNumber,
				"reason":     decision.Reason,
			})
			return &Result{Skipped: true, SkipReason: decision.Reason, Duration: time.Since(start)}, nil
		}
	}

	files, err := o.deps.Client.ListPullRequestFiles(ctx, req.Owner, req.Repo, req.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("list changed files: %w", err)
	}

	findings := o.evaluateFiles(files)

	body := o.deps.Renderer.ReviewBody(repository, req.PullNumber, len(files), findings)

	result := &Result{
		FilesReviewed: len(files),
		Findings:      findings,
		Body:          body,
	}

	if !req.DryRun {
		postResult, err := o.deps.Poster.Post(ctx, post.Request{
			Owner:      req.Owner,
			Repo:       req.Repo,
			PullNumber: req.PullNumber,
			CommitSHA:  pr.HeadSHA,
			Body:       body,
			Findings:   findings,
		})
		if err != nil {
			return nil, fmt.Errorf("post review: %w", err)
		}
		result.Post = postResult
	}
	result.Duration = time.Since(start)

	if req.OutputDir != "" {
		path, err := o.deps.Renderer.WriteReport(req.OutputDir, repository, req.PullNumber, body)
		if err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to save report", map[string]interface{}{"error": err.Error()})
		} else {
			result.ReportPath = path
		}
	}

	o.deps.Logger.LogInfo(ctx, "review complete", map[string]interface{}{
		"repository": repository,
		"pr":         req.PullNumber,
		"files":      len(files),
		"findings":   len(findings),
		"duration":   result.Duration.String(),
	})
	return result, nil
}

// evaluateFiles runs the rule evaluator over every file with a bounded
// worker pool. Results land in a slice indexed by input position so the
// output order matches the listing order regardless of scheduling.
func (o *Orchestrator) evaluateFiles(files []domain.FileChange) []domain.Finding {
	perFile := make([][]domain.Finding, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.deps.Workers)

	for i, file := range files {
		wg.Add(1)
		go func(i int, file domain.FileChange) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			additions := diff.Additions(diff.Parse(file.Patch))
			perFile[i] = rules.Evaluate(file, additions)
		}(i, file)
	}
	wg.Wait()

	var findings []domain.Finding
	for _, fs := range perFile {
		findings = append(findings, fs...)
	}
	return findings
}
