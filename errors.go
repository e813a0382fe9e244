package macro

import (
	"errors"
	"fmt"
)

// Failure kinds of remote data fetches. Clients wrap one of them, callers test
// with errors.Is. None of them is retried, and none is fatal to a dashboard:
// the element that needed the data is rendered as a placeholder instead.
var (
	// ErrAuth reports a missing or rejected API key.
	ErrAuth = errors.New("missing or invalid API key")
	// ErrNetwork reports a failed request: transport error, timeout or non 2xx status.
	ErrNetwork = errors.New("request failed")
	// ErrEmptyResult reports a successful request that carried no usable data.
	ErrEmptyResult = errors.New("no data returned")
)

// FetchError records which provider and which series (or feed) failed.
type FetchError struct {
	Provider string // e.g "fred"
	ID       string // series identifier, or the feed name
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorKind returns a short stable name for the kind of err: "auth",
// "network", "empty" or "error" for anything else. It is used as a metric
// label and as a css class on placeholders.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	default:
		return "error"
	}
}
