package httpx

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger provides structured logging for outbound API calls and background
// work. Implementations must be safe for concurrent use.
type Logger interface {
	// LogRequest logs an outgoing API request (credentials redacted).
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing information.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs a failed API call.
	LogError(ctx context.Context, errLog ErrorLog)

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})

	// LogWarning logs a warning with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Service   string
	Method    string
	Endpoint  string
	Timestamp time.Time
	Token     string // redacted to last 4 chars before output
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Service    string
	Method     string
	Endpoint   string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Service    string
	Endpoint   string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// DefaultLogger writes human-readable structured logs via the standard
// log package.
type DefaultLogger struct {
	level LogLevel
}

// NewDefaultLogger creates a logger with the given verbosity.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level}
}

// LogRequest logs an API request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s: %s %s (token=%s)",
		req.Service, req.Method, req.Endpoint, RedactToken(req.Token))
}

// LogResponse logs an API response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s: %s %s -> %d (duration=%.2fs)",
		resp.Service, resp.Method, resp.Endpoint, resp.StatusCode, resp.Duration.Seconds())
}

// LogError logs a failed API call.
func (l *DefaultLogger) LogError(ctx context.Context, errLog ErrorLog) {
	if l.level > LogLevelError {
		return
	}
	retryableStr := "non-retryable"
	if errLog.Retryable {
		retryableStr = "retryable"
	}
	log.Printf("[ERROR] %s: %s failed (status=%d, %s): %v",
		errLog.Service, errLog.Endpoint, errLog.StatusCode, retryableStr,
		RedactURLSecrets(fmt.Sprint(errLog.Error)))
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s%s", message, formatFields(fields))
}

// LogWarning logs a warning with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	log.Printf("[WARN] %s%s", message, formatFields(fields))
}

// formatFields renders fields as " (k=v, k=v)" with stable key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " (" + strings.Join(pairs, ", ") + ")"
}

// SilentLogger discards all log output. Useful in tests.
type SilentLogger struct{}

func (SilentLogger) LogRequest(context.Context, RequestLog)                      {}
func (SilentLogger) LogResponse(context.Context, ResponseLog)                    {}
func (SilentLogger) LogError(context.Context, ErrorLog)                          {}
func (SilentLogger) LogInfo(context.Context, string, map[string]interface{})     {}
func (SilentLogger) LogWarning(context.Context, string, map[string]interface{})  {}
