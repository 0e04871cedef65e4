// Package json persists repository statistics reports as JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type clock func() string

// Writer serialises reports to timestamped JSON files.
type Writer struct {
	now clock
}

// NewWriter constructs a JSON writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write marshals report into outputDir and returns the file path. The
// repository name is embedded in the filename so multiple exports can
// live side by side.
func (w *Writer) Write(outputDir, repository string, report any) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	filename := fmt.Sprintf("%s_stats_%s.json", sanitise(repository), w.now())
	path := filepath.Join(outputDir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write json: %w", err)
	}
	return path, nil
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
