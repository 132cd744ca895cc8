package query

import (
	"github.com/roach88/orbital/internal/criteria"
	"github.com/roach88/orbital/internal/typedesc"
)

// Condition selects the field type C for a single comparison.
//
//	b, err := query.Where[FirstName](b).Eq("Jimmy")
type Condition[C any] struct {
	b     *Builder
	field criteria.Comparison
}

// Where starts a comparison on the field type C.
func Where[C any](b *Builder) Condition[C] {
	return Condition[C]{b: b, field: criteria.On(typedesc.Of[C]())}
}

// Eq attaches C == v.
func (c Condition[C]) Eq(v C) (*Builder, error) { return c.b.WithCriterion(c.field.Eq(v)) }

// Ne attaches C != v.
func (c Condition[C]) Ne(v C) (*Builder, error) { return c.b.WithCriterion(c.field.Ne(v)) }

// Gt attaches C > v.
func (c Condition[C]) Gt(v C) (*Builder, error) { return c.b.WithCriterion(c.field.Gt(v)) }

// Lt attaches C < v.
func (c Condition[C]) Lt(v C) (*Builder, error) { return c.b.WithCriterion(c.field.Lt(v)) }

// Ge attaches C >= v.
func (c Condition[C]) Ge(v C) (*Builder, error) { return c.b.WithCriterion(c.field.Ge(v)) }

// Le attaches C <= v.
func (c Condition[C]) Le(v C) (*Builder, error) { return c.b.WithCriterion(c.field.Le(v)) }
