// Package orbital builds TaxiQL queries from Go types and runs them
// against a query server.
//
// Types declare their semantic data type with a DataType method, or with a
// `taxi` struct tag on fields:
//
//	type FirstName string
//
//	func (FirstName) DataType() string { return "FirstName" }
//
// Queries are immutable values built fluently:
//
//	q := orbital.As[Target](orbital.Find[[]Person]())
//	q, err := orbital.Where[FirstName](q).Eq("Jimmy")
//
//	client, err := orbital.HTTP("http://localhost:9022")
//	for v, err := range orbital.Run[Target](ctx, q, client) {
//		...
//	}
package orbital

import (
	"context"
	"iter"

	"github.com/roach88/orbital/internal/criteria"
	"github.com/roach88/orbital/internal/materialize"
	"github.com/roach88/orbital/internal/query"
	"github.com/roach88/orbital/internal/transport"
	"github.com/roach88/orbital/internal/typedesc"
)

type (
	// Builder is an immutable query under construction.
	Builder = query.Builder

	// Transport dispatches rendered queries.
	Transport = transport.Transport

	// Envelope is a rendered query with its correlation id.
	Envelope = transport.Envelope

	// Results is the payload stream of one query.
	Results = transport.Stream

	// Client is the HTTP and WebSocket transport.
	Client = transport.Client

	// Option configures a Client.
	Option = transport.Option

	// Mode selects the binding for find queries.
	Mode = transport.Mode

	// ResultMode is the result shape requested from the server.
	ResultMode = transport.ResultMode

	// Descriptor describes a type for statement generation.
	Descriptor = typedesc.Descriptor

	// Criterion is a query filter.
	Criterion = criteria.Criterion

	// MockTransport is an in-memory Transport for tests.
	MockTransport = transport.MockTransport

	// QueryFailedError is a query the server rejected.
	QueryFailedError = transport.QueryFailedError

	// ConnectionError is a transport failure.
	ConnectionError = transport.ConnectionError

	// DecodeError is a payload that did not decode into the result type.
	DecodeError = materialize.DecodeError
)

const (
	ModeRequestResponse = transport.ModeRequestResponse
	ModeStreaming       = transport.ModeStreaming

	ResultModeRaw     = transport.ResultModeRaw
	ResultModeTyped   = transport.ResultModeTyped
	ResultModeVerbose = transport.ResultModeVerbose
)

// Find starts a single-shot query for T.
func Find[T any]() *Builder { return query.Find[T]() }

// Stream starts a continuous query for T.
func Stream[T any]() *Builder { return query.Stream[T]() }

// As reprojects b onto T.
func As[T any](b *Builder) *Builder { return query.As[T](b) }

// Where starts a comparison on the field type C.
func Where[C any](b *Builder) query.Condition[C] { return query.Where[C](b) }

// Of returns the descriptor of T.
func Of[T any]() Descriptor { return typedesc.Of[T]() }

// NewClient creates a transport for the server at address.
func NewClient(address string, opts ...Option) (*Client, error) {
	return transport.NewClient(address, opts...)
}

// HTTP creates a request-response client.
func HTTP(address string, opts ...Option) (*Client, error) {
	return transport.HTTP(address, opts...)
}

// HTTPStream creates a client that streams every query.
func HTTPStream(address string, opts ...Option) (*Client, error) {
	return transport.HTTPStream(address, opts...)
}

// WithMode, WithHTTPClient, WithLogger and WithResultMode configure a Client.
var (
	WithMode       = transport.WithMode
	WithHTTPClient = transport.WithHTTPClient
	WithLogger     = transport.WithLogger
	WithResultMode = transport.WithResultMode
)

// NewMockTransport creates a MockTransport driven by the test.
func NewMockTransport() *MockTransport { return transport.NewMockTransport() }

// Run sends b over t and decodes each payload into T. A query that cannot
// be built yields its error once and sends nothing.
func Run[T any](ctx context.Context, b *Builder, t Transport) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		s, err := b.Send(ctx, t)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for v, err := range materialize.Decode[T](ctx, s) {
			if !yield(v, err) {
				return
			}
		}
	}
}

// Collect runs b and gathers every result. It is meant for find queries;
// a stream query blocks until the server ends it.
func Collect[T any](ctx context.Context, b *Builder, t Transport) ([]T, error) {
	s, err := b.Send(ctx, t)
	if err != nil {
		return nil, err
	}
	return materialize.Collect[T](ctx, s)
}

// IsConfigError reports whether err means the query itself is invalid.
func IsConfigError(err error) bool { return query.IsConfigError(err) }

// IsQueryFailed reports whether err is a server rejection.
func IsQueryFailed(err error) bool { return transport.IsQueryFailed(err) }

// IsConnectionError reports whether err is a transport failure.
func IsConnectionError(err error) bool { return transport.IsConnectionError(err) }
