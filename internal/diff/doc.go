// Package diff parses unified-diff patch text into per-line change records
// tagged with their resulting line number in the new file version.
//
// The records are the anchoring source for inline review comments: a comment
// may only attach to a line number that appears on an addition record, so
// the running new-file counter tracked across hunk headers is the one piece
// of state this package maintains. Parsing is deliberately fail-soft; all
// patch text is treated as untrusted and no input can produce an error.
package diff
