// Package review applies a fixed table of pattern-based heuristics to a
// changed file and produces review findings.
//
// The heuristics are expressed as data (a rule table) rather than a chain
// of conditionals, so individual rules are testable in isolation and new
// rules can be added without touching the evaluation order semantics.
// Evaluation is pure and side-effect free; rendering and posting findings
// belongs to the caller.
package review
