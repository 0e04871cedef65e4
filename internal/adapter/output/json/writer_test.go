package json

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() string { return "2024-01-15_10-30-00" }

func TestWriteProducesReadableJSON(t *testing.T) {
	w := NewWriter(fixedClock)
	dir := t.TempDir()

	report := map[string]any{"commits": 12, "contributors": 3}

	path, err := w.Write(dir, "octo/widgets", report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "octo-widgets_stats_2024-01-15_10-30-00.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(12), decoded["commits"])
}

func TestWriteRejectsUnserialisable(t *testing.T) {
	w := NewWriter(fixedClock)

	_, err := w.Write(t.TempDir(), "octo/widgets", map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
