package dispatch

import (
	"fmt"
)

// ErrNetwork is returned on transport failure, connection refusal or timeout.
type ErrNetwork struct {
	URL string
	Err error
}

func (e ErrNetwork) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus is returned when the server answers with a non-2xx status.
type ErrHTTPStatus struct {
	StatusCode int
	Body       string
}

func (e ErrHTTPStatus) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ErrMalformedResponse is returned when the response lacks results[0].text.
type ErrMalformedResponse struct {
	Reason string
}

func (e ErrMalformedResponse) Error() string {
	return "malformed response: " + e.Reason
}
