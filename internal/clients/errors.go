package clients

import (
	"errors"
	"fmt"
)

// ErrClientClosed is returned by every operation issued after Close.
var ErrClientClosed = errors.New("chargeamps: client closed")

// HTTPError is a non-2xx response from the API, login included.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("chargeamps: %s %s: http status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("chargeamps: %s %s: http status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// DecodeError is a response body that did not have the expected JSON shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("chargeamps: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
