package review

import "regexp"

// secretLineRule names the per-line secret heuristic in fingerprints.
const secretLineRule = "secret-literal"

const secretLineMessage = "possible hardcoded credential on this line — security review required"

// secretPatterns match secret-shaped literals on a single added line.
// The set covers the token formats of the major providers plus generic
// quoted credential assignments.
var secretPatterns = []*regexp.Regexp{
	// OpenAI / Anthropic style API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9\-]{20,}`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// GitHub tokens (personal, OAuth, server, refresh)
	regexp.MustCompile(`gh[posr]_[a-zA-Z0-9]{20,}`),
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	// JWTs
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
	// Slack tokens
	regexp.MustCompile(`xox[baprs]-[a-zA-Z0-9\-]{10,}`),
	// PEM private key headers
	regexp.MustCompile(`-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)?\s*PRIVATE\s+KEY-----`),
	// Generic quoted credential assignments
	regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|token)\s*[:=]\s*["'][^"']{4,}["']`),
}

// looksLikeSecret reports whether a single line of added content matches
// any secret-shaped pattern.
func looksLikeSecret(line string) bool {
	for _, p := range secretPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
