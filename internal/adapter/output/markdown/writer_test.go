package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttbonn/reviewagent/internal/domain"
)

func fixedClock() string { return "2024-01-15_10-30-00" }

func TestReviewBodyCountsInlineFindings(t *testing.T) {
	w := NewWriter(fixedClock)

	findings := []domain.Finding{
		{File: "app.py", Rule: "todo-comment", Message: "unresolved TODO/FIXME"},
		{File: "app.py", Rule: "secret-literal", Message: "possible hardcoded credential on this line — security review required", Line: domain.IntPtr(12)},
	}

	body := w.ReviewBody("octo/widgets", 42, 3, findings)

	assert.Contains(t, body, "## Automated Code Review")
	assert.Contains(t, body, "Reviewed 3 file(s) on octo/widgets#42 at 2024-01-15_10-30-00")
	assert.Contains(t, body, "**app.py** — Todo Comment: unresolved TODO/FIXME")
	assert.Contains(t, body, "1 line-level finding(s) attached as inline comments.")
	assert.NotContains(t, body, "security review required")
}

func TestReviewBodyNoGeneralFindings(t *testing.T) {
	w := NewWriter(fixedClock)

	body := w.ReviewBody("octo/widgets", 7, 1, nil)

	assert.NotContains(t, body, "### Findings")
	assert.Contains(t, body, "generated automatically")
}

func TestWriteReport(t *testing.T) {
	w := NewWriter(fixedClock)
	dir := t.TempDir()

	path, err := w.WriteReport(dir, "octo/widgets", 42, "# report\n")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "octo-widgets_pr42_2024-01-15_10-30-00.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# report"))
}

func TestSanitise(t *testing.T) {
	assert.Equal(t, "octo-widgets", sanitise("octo/widgets"))
	assert.Equal(t, "unknown", sanitise(""))
}
