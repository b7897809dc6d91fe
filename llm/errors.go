package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyGeneration means the API answered successfully but no output item
// carried non-empty text.
var ErrEmptyGeneration = errors.New("no text returned by generation API")

// maxErrorBody caps how much of an error body is shown in Error().
// The full body stays available in UpstreamError.Body.
const maxErrorBody = 200

// UpstreamError is a non-2xx answer from a generation or publishing API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, body)
}

// Transient reports whether the status usually clears on its own
// (rate limiting, 5xx). Nothing retries automatically; the flag is
// reported so an operator can tell a rerun from a config fix.
func (e *UpstreamError) Transient() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsUpstream returns true if err is or wraps an *UpstreamError.
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// IsEmptyGeneration returns true if err is or wraps ErrEmptyGeneration.
func IsEmptyGeneration(err error) bool {
	return errors.Is(err, ErrEmptyGeneration)
}
