// Package markdown renders review results into the Markdown body posted
// with a pull request review, and optionally into a report file on disk.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ttbonn/reviewagent/internal/domain"
)

type clock func() string

// Writer renders review findings into Markdown.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// ReviewBody builds the summary body submitted with a pull request
// review. Inline findings are posted as anchored comments by the caller
// and listed here only in aggregate.
func (w *Writer) ReviewBody(repository string, pullNumber int, files int, findings []domain.Finding) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("## Automated Code Review\n\n")
	builder.WriteString(fmt.Sprintf("Reviewed %d file(s) on %s#%d at %s.\n\n", files, repository, pullNumber, w.now()))

	general, inline := splitFindings(findings)

	if len(general) > 0 {
		builder.WriteString("### Findings\n\n")
		for _, f := range general {
			builder.WriteString(fmt.Sprintf("- **%s** — %s: %s\n", f.File, caser.String(ruleTitle(f.Rule)), f.Message))
		}
		builder.WriteString("\n")
	}

	if inline > 0 {
		builder.WriteString(fmt.Sprintf("%d line-level finding(s) attached as inline comments.\n\n", inline))
	}

	builder.WriteString("---\n*This review was generated automatically; treat the findings as suggestions.*\n")
	return builder.String()
}

// WriteReport persists the review body as a Markdown file and returns its
// path.
func (w *Writer) WriteReport(outputDir, repository string, pullNumber int, body string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_pr%d_%s.md", sanitise(repository), pullNumber, w.now())
	path := filepath.Join(outputDir, filename)

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return path, nil
}

// splitFindings separates whole-file findings from inline ones.
func splitFindings(findings []domain.Finding) (general []domain.Finding, inline int) {
	for _, f := range findings {
		if f.Inline() {
			inline++
			continue
		}
		general = append(general, f)
	}
	return general, inline
}

// ruleTitle turns a rule identifier like "print-call" into "print call".
func ruleTitle(rule string) string {
	return strings.ReplaceAll(rule, "-", " ")
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
