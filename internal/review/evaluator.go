package review

import (
	"sort"

	"github.com/ttbonn/reviewagent/internal/diff"
	"github.com/ttbonn/reviewagent/internal/domain"
)

// NoIssuesMessage is the single fallback finding emitted when nothing fired.
const NoIssuesMessage = "no issues detected"

// Evaluate applies the fixed rule table to one changed file and returns its
// findings. Whole-file rules come first in table order, then per-line secret
// findings ordered by ascending line number. When no rule fires the result
// is exactly one "no issues detected" finding.
//
// Evaluate is pure: it never errors, touches no shared state, and is safe
// to call concurrently across files. Unknown file extensions simply get
// only the extension-agnostic rules.
func Evaluate(file domain.FileChange, additions []diff.ChangeRecord) []domain.Finding {
	var findings []domain.Finding

	for _, rule := range defaultRules {
		if !rule.AppliesTo(file.Path) {
			continue
		}
		if !rule.Matches(file) {
			continue
		}
		findings = append(findings, domain.Finding{
			File:    file.Path,
			Rule:    rule.Name,
			Message: rule.Message,
		})
	}

	var inline []domain.Finding
	for _, record := range additions {
		if record.Kind != diff.KindAddition {
			continue
		}
		if !looksLikeSecret(record.Text) {
			continue
		}
		inline = append(inline, domain.Finding{
			File:    file.Path,
			Rule:    secretLineRule,
			Message: secretLineMessage,
			Line:    domain.IntPtr(record.NewLine),
		})
	}

	// Patch order usually already ascends, but a malformed hunk header is
	// skipped without resetting the line counter, so a later hunk can sit
	// below an earlier one. Sort to keep the ascending guarantee.
	sort.SliceStable(inline, func(i, j int) bool {
		return *inline[i].Line < *inline[j].Line
	})
	findings = append(findings, inline...)

	if len(findings) == 0 {
		findings = append(findings, domain.Finding{
			File:    file.Path,
			Rule:    "clean",
			Message: NoIssuesMessage,
		})
	}

	return findings
}
