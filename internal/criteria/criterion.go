package criteria

import "github.com/roach88/orbital/internal/typedesc"

// Operand is one side of an expression.
//
// This is a sealed interface - only Field, Literal and *Expr implement it.
type Operand interface {
	operand() // Marker method - seals interface to this package
}

// Criterion is a boolean expression usable as a query filter.
// *Expr is the only implementation.
type Criterion interface {
	Operand
	criterion()
}

// Field identifies a value by its data type, e.g. FirstName.
type Field struct {
	Type typedesc.Descriptor
}

func (Field) operand() {}

// Literal is a constant operand.
//
// Supported values: strings, booleans, integers, floats, time.Time, and
// named types whose underlying kind is one of those.
type Literal struct {
	Value any
}

func (Literal) operand() {}

// Expr applies Op to Left and Right.
type Expr struct {
	Op    Operator
	Left  Operand
	Right Operand
}

func (*Expr) operand()   {}
func (*Expr) criterion() {}

// Comparison starts a fluent comparison against a field.
type Comparison struct {
	field Field
}

// On begins a comparison whose left side is the field with data type d.
func On(d typedesc.Descriptor) Comparison {
	return Comparison{field: Field{Type: d}}
}

// Eq builds field == v.
func (c Comparison) Eq(v any) *Expr { return c.compare(Equal, v) }

// Ne builds field != v.
func (c Comparison) Ne(v any) *Expr { return c.compare(NotEqual, v) }

// Gt builds field > v.
func (c Comparison) Gt(v any) *Expr { return c.compare(GreaterThan, v) }

// Lt builds field < v.
func (c Comparison) Lt(v any) *Expr { return c.compare(LessThan, v) }

// Ge builds field >= v.
func (c Comparison) Ge(v any) *Expr { return c.compare(GreaterThanOrEqual, v) }

// Le builds field <= v.
func (c Comparison) Le(v any) *Expr { return c.compare(LessThanOrEqual, v) }

// Compare builds field <op> v for any comparison operator.
func (c Comparison) Compare(op Operator, v any) *Expr { return c.compare(op, v) }

func (c Comparison) compare(op Operator, v any) *Expr {
	return &Expr{Op: op, Left: c.field, Right: operandOf(v)}
}

// And combines two criteria with &&.
func And(left, right Criterion) *Expr {
	return &Expr{Op: LogicalAnd, Left: left, Right: right}
}

// Or combines two criteria with ||.
func Or(left, right Criterion) *Expr {
	return &Expr{Op: LogicalOr, Left: left, Right: right}
}

// Arith builds an arithmetic operand, e.g. Arith(Add, Field{...}, Literal{1}).
func Arith(op Operator, left, right Operand) *Expr {
	return &Expr{Op: op, Left: left, Right: right}
}

// operandOf passes Operands through and wraps anything else as a Literal.
func operandOf(v any) Operand {
	if o, ok := v.(Operand); ok {
		return o
	}
	return Literal{Value: v}
}
