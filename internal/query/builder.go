// Package query is the caller-facing fluent API for building TaxiQL
// queries from Go types.
//
//	b := query.As[Target](query.Find[[]Person]())
//	b, err := query.Where[FirstName](b).Eq("Jimmy")
//	stream, err := b.Send(ctx, client)
//
// A Builder is an immutable value. Every fluent call returns a new Builder
// that shares the unchanged fields; the original stays valid and usable.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/orbital/internal/criteria"
	"github.com/roach88/orbital/internal/ids"
	"github.com/roach88/orbital/internal/statement"
	"github.com/roach88/orbital/internal/transport"
	"github.com/roach88/orbital/internal/typedesc"
)

// ErrNilTransport is returned by Send when no transport is given.
var ErrNilTransport = errors.New("nil transport")

// Builder accumulates one query.
type Builder struct {
	verb      statement.Verb
	source    typedesc.Descriptor
	target    typedesc.Descriptor
	criterion criteria.Criterion
	namespace string
	ids       ids.Generator
}

func newBuilder(verb statement.Verb, d typedesc.Descriptor) *Builder {
	return &Builder{
		verb:   verb,
		source: d,
		target: d,
		ids:    ids.UUIDGenerator{},
	}
}

// Find starts a single-shot query over T. Source and target are both T,
// so no projection is emitted until Reproject or As is called.
func Find[T any]() *Builder {
	return FindType(typedesc.Of[T]())
}

// Stream starts a continuous query over T.
func Stream[T any]() *Builder {
	return StreamType(typedesc.Of[T]())
}

// FindType is Find for a descriptor built without a Go type.
func FindType(d typedesc.Descriptor) *Builder {
	return newBuilder(statement.Find, d)
}

// StreamType is Stream for a descriptor built without a Go type.
func StreamType(d typedesc.Descriptor) *Builder {
	return newBuilder(statement.Stream, d)
}

// As returns a copy of b projecting results into T.
func As[T any](b *Builder) *Builder {
	return b.Reproject(typedesc.Of[T]())
}

func (b *Builder) clone() *Builder {
	c := *b
	return &c
}

// Reproject returns a copy of b with the target replaced. Source, verb and
// criterion carry over unchanged.
func (b *Builder) Reproject(d typedesc.Descriptor) *Builder {
	c := b.clone()
	c.target = d
	return c
}

// WithCriterion returns a copy of b filtered by c. A builder holds at most
// one top-level criterion; combine several with criteria.And or
// criteria.Or. Attaching a second one fails and leaves b untouched.
func (b *Builder) WithCriterion(c criteria.Criterion) (*Builder, error) {
	if b.criterion != nil {
		return nil, criteria.NewAlreadySetError()
	}
	if err := criteria.Validate(c); err != nil {
		return nil, err
	}
	out := b.clone()
	out.criterion = c
	return out, nil
}

// WithNamespace returns a copy of b whose synthesized type names are
// qualified with ns.
func (b *Builder) WithNamespace(ns string) *Builder {
	c := b.clone()
	c.namespace = ns
	return c
}

// WithIDs returns a copy of b that draws correlation ids from g.
func (b *Builder) WithIDs(g ids.Generator) *Builder {
	c := b.clone()
	c.ids = g
	return c
}

// Verb returns the query verb.
func (b *Builder) Verb() statement.Verb { return b.verb }

// Source returns the queried type.
func (b *Builder) Source() typedesc.Descriptor { return b.source }

// Target returns the projection type.
func (b *Builder) Target() typedesc.Descriptor { return b.target }

// Criterion returns the filter, or nil.
func (b *Builder) Criterion() criteria.Criterion { return b.criterion }

func (b *Builder) request() statement.Request {
	return statement.Request{
		Verb:      b.verb,
		Source:    b.source,
		Target:    b.target,
		Criterion: b.criterion,
	}
}

// Statement renders the TaxiQL statement. It is pure and may be called
// any number of times.
func (b *Builder) Statement() (string, error) {
	return statement.NewGenerator(b.namespace).Render(b.request())
}

// Envelope renders the statement and wraps it with a fresh correlation id.
func (b *Builder) Envelope() (transport.Envelope, error) {
	text, err := b.Statement()
	if err != nil {
		return transport.Envelope{}, err
	}
	gen := b.ids
	if gen == nil {
		gen = ids.UUIDGenerator{}
	}
	return transport.Envelope{
		Statement:     text,
		Verb:          b.verb,
		Target:        b.target,
		ClientQueryID: gen.Generate(),
	}, nil
}

// Send renders the query and hands it to t. Configuration errors are
// returned before t is called; transport failures arrive on the stream.
func (b *Builder) Send(ctx context.Context, t transport.Transport) (*transport.Stream, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	env, err := b.Envelope()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return t.Execute(ctx, env), nil
}

// IsConfigError reports whether err is a query configuration error: a
// type that cannot be resolved, an invalid or duplicate criterion, or an
// invalid verb. Configuration errors are never worth retrying.
func IsConfigError(err error) bool {
	return typedesc.IsResolveError(err) ||
		criteria.IsCriterionError(err) ||
		errors.Is(err, statement.ErrInvalidVerb)
}

// Must panics if err is non-nil. It is meant for queries declared as
// package-level values.
func Must(b *Builder, err error) *Builder {
	if err != nil {
		panic(err)
	}
	return b
}
