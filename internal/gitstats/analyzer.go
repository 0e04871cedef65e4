// Package gitstats computes summary statistics for a local git
// repository: commit count, contributors, tracked files, and the time
// of the most recent commit.
package gitstats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Report is the computed repository summary.
type Report struct {
	Path         string    `json:"path"`
	Branch       string    `json:"branch"`
	Commits      int       `json:"commits"`
	Contributors []string  `json:"contributors"`
	TrackedFiles int       `json:"tracked_files"`
	LastCommit   time.Time `json:"last_commit"`
	LastAuthor   string    `json:"last_author"`
	LastMessage  string    `json:"last_message"`
}

// Analyzer reads statistics from a repository on disk.
type Analyzer struct {
	repoDir string
}

// NewAnalyzer constructs an Analyzer for the given directory.
func NewAnalyzer(repoDir string) *Analyzer {
	return &Analyzer{repoDir: repoDir}
}

// Analyze walks the history reachable from HEAD and the HEAD tree.
func (a *Analyzer) Analyze() (Report, error) {
	repo, err := goGit.PlainOpenWithOptions(a.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Report{}, fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return Report{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	report := Report{Path: a.repoDir}
	if head.Name().IsBranch() {
		report.Branch = head.Name().Short()
	}

	iter, err := repo.Log(&goGit.LogOptions{From: head.Hash()})
	if err != nil {
		return Report{}, fmt.Errorf("read log: %w", err)
	}

	authors := make(map[string]bool)
	first := true
	err = iter.ForEach(func(c *object.Commit) error {
		report.Commits++
		authors[c.Author.Name] = true
		if first {
			report.LastCommit = c.Author.When.UTC()
			report.LastAuthor = c.Author.Name
			report.LastMessage = firstLine(c.Message)
			first = false
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("walk history: %w", err)
	}

	for name := range authors {
		report.Contributors = append(report.Contributors, name)
	}
	sort.Strings(report.Contributors)

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Report{}, fmt.Errorf("resolve HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return Report{}, fmt.Errorf("resolve HEAD tree: %w", err)
	}
	err = tree.Files().ForEach(func(*object.File) error {
		report.TrackedFiles++
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("walk tree: %w", err)
	}

	return report, nil
}

// Render formats the report for terminal output.
func Render(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", r.Path)
	if r.Branch != "" {
		fmt.Fprintf(&b, "Branch:     %s\n", r.Branch)
	}
	fmt.Fprintf(&b, "Commits:    %d\n", r.Commits)
	fmt.Fprintf(&b, "Files:      %d\n", r.TrackedFiles)
	fmt.Fprintf(&b, "Authors:    %s\n", strings.Join(r.Contributors, ", "))
	if !r.LastCommit.IsZero() {
		fmt.Fprintf(&b, "Last commit: %s by %s (%s)\n",
			r.LastCommit.Format(time.RFC3339), r.LastAuthor, r.LastMessage)
	}
	return b.String()
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return strings.TrimSpace(message[:idx])
	}
	return strings.TrimSpace(message)
}
