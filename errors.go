package sourcewatch

import "fmt"

// FetchError reports that a status lookup failed hard (network, auth,
// not-found, decode). Fetch errors are not retried: the poller stops and
// delivers the error to its completion callback.
type FetchError struct {
	// ID is the identifier of the resource being watched.
	ID string

	// Attempts is the poll count at the time of the failure.
	Attempts int

	// Err is the underlying lookup error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching resource %s (attempt %d): %v", e.ID, e.Attempts, e.Err)
}

// Unwrap returns the underlying lookup error for use with errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// AttemptsExceededError reports that the resource never reached a terminal
// state within the configured maximum attempt count. The caller may
// construct a new [Poller] to resume polling manually.
type AttemptsExceededError struct {
	// ID is the identifier of the resource being watched.
	ID string

	// Attempts is how many fetches were issued before giving up.
	Attempts int
}

// Error implements the error interface.
func (e *AttemptsExceededError) Error() string {
	return fmt.Sprintf("resource %s did not reach a terminal state after %d attempts", e.ID, e.Attempts)
}
