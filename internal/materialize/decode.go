// Package materialize decodes raw result payloads into caller types.
package materialize

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/roach88/orbital/internal/transport"
)

// DecodeError is a payload that could not be decoded into the target type.
type DecodeError struct {
	// Index is the zero-based position of the payload in the stream.
	Index int

	// Payload is the raw payload.
	Payload []byte

	// Err is the underlying JSON error.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode returns a sequence of T, one json.Unmarshal per payload, in
// stream order. A decode failure yields a *DecodeError and closes the
// stream; a stream failure is yielded unchanged. Stopping early closes the
// stream.
func Decode[T any](ctx context.Context, s *transport.Stream) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		i := 0
		for payload, err := range s.All(ctx) {
			var zero T
			if err != nil {
				yield(zero, err)
				return
			}

			v, err := Unmarshal[T](payload)
			if err != nil {
				s.Close()
				yield(zero, &DecodeError{Index: i, Payload: payload, Err: err})
				return
			}
			i++
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect drains Decode into a slice. It stops at the first error and
// returns the values decoded so far with it.
func Collect[T any](ctx context.Context, s *transport.Stream) ([]T, error) {
	var out []T
	for v, err := range Decode[T](ctx, s) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Unmarshal decodes one payload.
func Unmarshal[T any](payload []byte) (T, error) {
	var v T
	err := json.Unmarshal(payload, &v)
	return v, err
}
