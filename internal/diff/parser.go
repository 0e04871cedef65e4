package diff

import (
	"strconv"
	"strings"
)

// Kind classifies a line in a diff hunk.
type Kind int

const (
	// KindContext is an unchanged line carried for context.
	KindContext Kind = iota
	// KindAddition is a line added in the new file version.
	KindAddition
	// KindDeletion is a line removed from the old file version.
	KindDeletion
)

// ChangeRecord is one line touched by a diff, tagged with its resulting
// position in the new file version.
type ChangeRecord struct {
	Kind Kind

	// NewLine is the line number in the post-change file. It is meaningful
	// only for additions and context lines; deletions have no position in
	// the new file and carry zero.
	NewLine int

	// Text is the line content with the leading diff marker stripped.
	Text string
}

// Parse walks a unified-diff patch string and returns one ChangeRecord per
// line, in patch order. An empty patch yields an empty result; that is not
// an error (binary files and renames have no patch text).
//
// A `@@` hunk header resets the running new-file counter to the start line
// declared after the `+`. A header without a parseable start value leaves
// the counter unchanged and parsing continues; subsequent line numbers in
// that file may then be wrong, which callers accept in exchange for never
// failing on untrusted patch text.
//
// The `+++` and `---` file-header lines are recognized and recorded as
// context rather than additions or deletions.
func Parse(patch string) []ChangeRecord {
	if patch == "" {
		return nil
	}

	var records []ChangeRecord
	newLine := 0

	for _, line := range strings.Split(patch, "\n") {
		// A trailing newline in the patch produces one empty element.
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "@@") {
			if start, ok := parseHunkHeader(line); ok {
				newLine = start
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			records = append(records, ChangeRecord{Kind: KindContext, NewLine: newLine, Text: line})
			newLine++
		case strings.HasPrefix(line, "+"):
			records = append(records, ChangeRecord{Kind: KindAddition, NewLine: newLine, Text: line[1:]})
			newLine++
		case strings.HasPrefix(line, "-"):
			records = append(records, ChangeRecord{Kind: KindDeletion, Text: line[1:]})
		default:
			text := line
			if strings.HasPrefix(text, " ") {
				text = text[1:]
			}
			records = append(records, ChangeRecord{Kind: KindContext, NewLine: newLine, Text: text})
			newLine++
		}
	}

	return records
}

// Additions returns the subset of records that are additions, preserving
// order. Review findings may only anchor to these lines.
func Additions(records []ChangeRecord) []ChangeRecord {
	var adds []ChangeRecord
	for _, r := range records {
		if r.Kind == KindAddition {
			adds = append(adds, r)
		}
	}
	return adds
}

// parseHunkHeader extracts the new-file start line from a header like
// "@@ -10,5 +12,6 @@ optional context". The second return value is false
// when no start line could be parsed.
func parseHunkHeader(line string) (int, bool) {
	parts := strings.Split(line, "@@")
	if len(parts) < 2 {
		return 0, false
	}

	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		if !strings.HasPrefix(field, "+") {
			continue
		}
		start, _ := parseRange(strings.TrimPrefix(field, "+"))
		if start <= 0 {
			return 0, false
		}
		return start, true
	}

	return 0, false
}

// parseRange parses "start,count" or "start" format.
func parseRange(s string) (start, count int) {
	if idx := strings.Index(s, ","); idx >= 0 {
		start, _ = strconv.Atoi(s[:idx])
		count, _ = strconv.Atoi(s[idx+1:])
	} else {
		start, _ = strconv.Atoi(s)
		count = 1
	}
	return
}
