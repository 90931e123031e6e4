package completion

import "fmt"

// TransientError reports a rate-limit or server error (HTTP 429 or 500)
// that is worth retrying with backoff.
type TransientError struct {
	StatusCode int
	Body       string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("completion service transient failure: http %d", e.StatusCode)
}

// StatusError reports any other non-success status. These are not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service rejected request: http %d", e.StatusCode)
}

// ParseError reports a success response whose body could not be decoded
// into a usable reply. Not retried: the service answered, the answer was
// just unusable.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse completion response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// transientStatus reports whether a status code falls under the retry
// policy.
func transientStatus(code int) bool {
	return code == 429 || code == 500
}
