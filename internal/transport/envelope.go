package transport

import (
	"context"

	"github.com/roach88/orbital/internal/statement"
	"github.com/roach88/orbital/internal/typedesc"
)

// Envelope is one dispatchable query.
type Envelope struct {
	// Statement is the rendered TaxiQL text.
	Statement string

	// Verb selects the delivery binding together with the client mode.
	Verb statement.Verb

	// Target is the projection descriptor results are materialized into.
	Target typedesc.Descriptor

	// ClientQueryID correlates the query across client and server logs.
	// It is generated fresh for every envelope and never reused.
	ClientQueryID string
}

// Transport executes envelopes.
//
// Execute never blocks on I/O and never returns nil: dispatch failures are
// delivered through the returned Stream. Implementations must be safe for
// concurrent use by multiple simultaneous queries.
type Transport interface {
	Execute(ctx context.Context, env Envelope) *Stream
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, env Envelope) *Stream

// Execute calls f.
func (f Func) Execute(ctx context.Context, env Envelope) *Stream {
	return f(ctx, env)
}
