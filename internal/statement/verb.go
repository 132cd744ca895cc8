package statement

import (
	"errors"
	"fmt"
)

// Verb is the query mode: a single-shot lookup or a continuous subscription.
type Verb string

const (
	// Find is a single-shot lookup.
	Find Verb = "find"
	// Stream is a continuous subscription; its results are always a sequence.
	Stream Verb = "stream"
)

// ErrInvalidVerb is returned for verbs other than Find and Stream.
var ErrInvalidVerb = errors.New("invalid verb")

// Valid reports whether v is Find or Stream.
func (v Verb) Valid() bool {
	return v == Find || v == Stream
}

// String returns the verb's TaxiQL keyword.
func (v Verb) String() string {
	return string(v)
}

// ParseVerb parses "find" or "stream".
func ParseVerb(s string) (Verb, error) {
	v := Verb(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVerb, s)
	}
	return v, nil
}
