package httpx

import (
	"fmt"
	"regexp"
)

// RedactToken shows only the last 4 characters of a credential with
// explicit redaction markers.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", token[len(token)-4:])
}

// sensitiveQueryParams matches credential-bearing query parameters so they
// can be stripped from URLs before they reach log output or error text.
var sensitiveQueryParams = []*regexp.Regexp{
	regexp.MustCompile(`key=([^&"\s]+)`),
	regexp.MustCompile(`apiKey=([^&"\s]+)`),
	regexp.MustCompile(`api_key=([^&"\s]+)`),
	regexp.MustCompile(`token=([^&"\s]+)`),
	regexp.MustCompile(`access_token=([^&"\s]+)`),
}

// RedactURLSecrets redacts credentials from URLs embedded in error
// messages, so a failed request can be logged without exposing the token
// that authenticated it.
//
// Example:
//
//	input:  "https://api.example.com/endpoint?token=secret123&foo=bar"
//	output: "https://api.example.com/endpoint?token=[REDACTED]&foo=bar"
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, re := range sensitiveQueryParams {
		name := re.String()[:len(re.String())-len(`=([^&"\s]+)`)]
		result = re.ReplaceAllString(result, name+"=[REDACTED]")
	}
	return result
}
