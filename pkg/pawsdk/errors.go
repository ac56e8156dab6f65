package pawsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies request failures. Retry eligibility depends only on
// the kind.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNetwork
	KindTimeout
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	default:
		return "none"
	}
}

// ErrNoRefreshToken is returned when a refresh is needed but no refresh
// token is stored.
var ErrNoRefreshToken = errors.New("pawsdk: no refresh token available")

// NetworkError is a failure before any response was received, such as a
// refused connection or a DNS failure. Network errors are retried.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when a single attempt exceeded the client's
// per-attempt timeout. It is never retried.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return "request timed out"
}

// HTTPError is a non-2xx response. Message comes from the body's "detail"
// field, or "Error <status>" when the body carries none.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// KindOf reports the kind of a request error.
func KindOf(err error) ErrorKind {
	var (
		netErr     *NetworkError
		timeoutErr *TimeoutError
		httpErr    *HTTPError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindNone
	}
}

// StatusCode returns the HTTP status of an *HTTPError in err's chain, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// parseErrorResponse builds the error for a non-2xx response body.
func parseErrorResponse(status int, body []byte) *HTTPError {
	e := &HTTPError{
		StatusCode: status,
		Message:    fmt.Sprintf("Error %d", status),
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return e
	}

	if msg := detailMessage(payload.Detail); msg != "" {
		e.Message = msg
	}
	return e
}

// detailMessage accepts either a plain string or a list of validation
// errors with a "msg" field each.
func detailMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
