package ranger

import "fmt"

// AuthError reports rejected credentials. It is not retryable: retrying with
// the same credentials can only produce the same answer.
type AuthError struct {
	StatusCode int
	URL        string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d) for %s", e.StatusCode, e.URL)
}

// ShortReadError reports a range response that carried fewer bytes than
// requested. It is surfaced after one retry on a fresh request.
type ShortReadError struct {
	Requested int
	Got       int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read: requested %d bytes, got %d", e.Requested, e.Got)
}
