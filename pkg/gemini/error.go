package gemini

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMissingAPIKey is returned when the client has no API key configured.
var ErrMissingAPIKey = errors.New("gemini: API key is not configured")

// maxErrorBody bounds how much of an upstream body is kept in errors.
const maxErrorBody = 4096

// HTTPStatusError captures non-2xx responses from the API.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// ResponseShapeError is returned when a 2xx response does not carry an answer.
type ResponseShapeError struct {
	Reason string
	Body   string
}

func (e *ResponseShapeError) Error() string {
	if e.Body == "" {
		return "gemini: unexpected response: " + e.Reason
	}
	return fmt.Sprintf("gemini: unexpected response: %s: %s", e.Reason, e.Body)
}

// TransportError wraps a failure to complete the HTTP round trip. Its
// message has the API key scrubbed.
type TransportError struct {
	Err     error
	message string
}

func (e *TransportError) Error() string {
	return "gemini: request failed: " + e.message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
