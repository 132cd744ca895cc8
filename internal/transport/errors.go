package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamClosed terminates a stream the consumer abandoned with Close.
	ErrStreamClosed = errors.New("stream closed by consumer")

	// ErrBufferOverflow terminates a stream whose consumer fell further
	// behind than the buffer allows. Payloads are never dropped silently.
	ErrBufferOverflow = errors.New("stream buffer overflow")
)

// QueryFailedError is a non-success reply from the query server.
type QueryFailedError struct {
	// StatusCode is the HTTP status.
	StatusCode int

	// Message is the status text, followed by the response body if any.
	Message string

	// QueryID is the client query id of the failed envelope.
	QueryID string
}

// Error implements the error interface.
func (e *QueryFailedError) Error() string {
	if e.QueryID != "" {
		return fmt.Sprintf("query failed: %d %s (query=%s)", e.StatusCode, e.Message, e.QueryID)
	}
	return fmt.Sprintf("query failed: %d %s", e.StatusCode, e.Message)
}

// ConnectionError is a connection-level failure. For streaming queries an
// abnormal close arrives as a ConnectionError wrapping websocket.CloseError.
type ConnectionError struct {
	// Op is the failing operation, e.g. "dial" or "read".
	Op string

	// URL is the endpoint involved.
	URL string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsQueryFailed reports whether err is a QueryFailedError.
// Uses errors.As to handle wrapped errors.
func IsQueryFailed(err error) bool {
	var qe *QueryFailedError
	return errors.As(err, &qe)
}

// IsConnectionError reports whether err is a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// StatusCode extracts the status of a QueryFailedError, or 0.
func StatusCode(err error) int {
	var qe *QueryFailedError
	if errors.As(err, &qe) {
		return qe.StatusCode
	}
	return 0
}

// ErrUnsupportedScheme is returned by NewClient for addresses that are not
// http, https, ws or wss.
var ErrUnsupportedScheme = errors.New("unsupported address scheme")
