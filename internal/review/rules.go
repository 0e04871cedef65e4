package review

import (
	"strings"

	"github.com/ttbonn/reviewagent/internal/domain"
)

// Rule is one whole-file review heuristic. Rules are deliberately plain
// substring and length checks: the reviewer is a fast, language-agnostic
// first pass, not a linter replacement. Each rule is stateless and
// evaluated independently, so the table can grow without touching the
// evaluation algorithm.
type Rule struct {
	// Name is the stable identifier used for finding fingerprints.
	Name string

	// Extensions restricts the rule to files with one of these lowercase
	// extensions. Nil means the rule applies to every file.
	Extensions []string

	// Message is the finding text emitted when the rule fires.
	Message string

	// Matches reports whether the rule fires for the given file.
	Matches func(file domain.FileChange) bool
}

// AppliesTo reports whether the rule covers the given file path.
func (r Rule) AppliesTo(path string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range r.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// defaultRules is the fixed rule table. Finding order follows table order.
var defaultRules = []Rule{
	{
		Name:    "large-change",
		Message: "large change — consider splitting",
		Matches: func(f domain.FileChange) bool { return f.Additions > 100 },
	},
	{
		Name:       "print-call",
		Extensions: []string{".py"},
		Message:    "use structured logging instead of print",
		Matches:    patchContains("print("),
	},
	{
		Name:       "todo-marker",
		Extensions: []string{".py"},
		Message:    "unresolved TODO/FIXME",
		Matches: func(f domain.FileChange) bool {
			return strings.Contains(f.Patch, "TODO") || strings.Contains(f.Patch, "FIXME")
		},
	},
	{
		Name:       "wildcard-import",
		Extensions: []string{".py"},
		Message:    "avoid wildcard imports",
		Matches:    patchContains("import *"),
	},
	{
		Name:       "console-log",
		Extensions: []string{".js", ".ts"},
		Message:    "remove debug logging before merge",
		Matches:    patchContains("console.log"),
	},
	{
		Name:       "var-declaration",
		Extensions: []string{".js", ".ts"},
		Message:    "prefer block-scoped declarations",
		Matches:    patchContains("var "),
	},
	{
		Name:       "large-doc",
		Extensions: []string{".md"},
		Message:    "large documentation change — verify structure",
		Matches: func(f domain.FileChange) bool {
			return len(strings.Split(f.Patch, "\n")) > 50
		},
	},
	{
		Name:    "credential-keyword",
		Message: "possible hardcoded credential — security review required",
		Matches: func(f domain.FileChange) bool {
			lower := strings.ToLower(f.Patch)
			return strings.Contains(lower, "password") ||
				strings.Contains(lower, "secret") ||
				strings.Contains(lower, "token")
		},
	},
}

func patchContains(substr string) func(domain.FileChange) bool {
	return func(f domain.FileChange) bool {
		return strings.Contains(f.Patch, substr)
	}
}
