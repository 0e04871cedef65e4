// Package skip decides whether a pull request should bypass the
// automated review. Authors opt out by putting a trigger phrase in the
// PR title or description; draft pull requests are skipped outright.
package skip

import (
	"regexp"

	"github.com/ttbonn/reviewagent/internal/domain"
)

// triggerPattern matches [skip code-review] or [skip-code-review],
// case-insensitive.
var triggerPattern = regexp.MustCompile(`(?i)\[skip[ -]code-review\]`)

// ContainsTrigger reports whether text carries a skip trigger.
func ContainsTrigger(text string) bool {
	return triggerPattern.MatchString(text)
}

// Result explains a skip decision.
type Result struct {
	Skip   bool
	Reason string
}

// Check examines a pull request for skip conditions. Title is checked
// before body, and the first match wins.
func Check(pr domain.PullRequest) Result {
	if pr.Draft {
		return Result{Skip: true, Reason: "pull request is a draft"}
	}
	if ContainsTrigger(pr.Title) {
		return Result{Skip: true, Reason: "skip trigger in PR title"}
	}
	if ContainsTrigger(pr.Body) {
		return Result{Skip: true, Reason: "skip trigger in PR description"}
	}
	return Result{}
}
