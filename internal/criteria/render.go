package criteria

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/orbital/internal/typedesc"
)

// ResolveFunc resolves a field descriptor. The statement generator passes
// its per-render Resolver so field types share the render's cache.
type ResolveFunc func(typedesc.Descriptor) (typedesc.Resolved, error)

var timeType = reflect.TypeFor[time.Time]()

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Validate checks that c is a well-formed boolean expression.
func Validate(c Criterion) error {
	e, ok := c.(*Expr)
	if !ok || e == nil {
		return invalidf("criterion must be a non-nil expression")
	}
	if e.Op.IsArithmetic() {
		return invalidf("top-level criterion must be a comparison or logical expression, got %s", e.Op)
	}
	return validateExpr(e)
}

func validateExpr(e *Expr) error {
	if e == nil {
		return invalidf("nil expression")
	}
	if !e.Op.Valid() {
		return invalidf("unknown operator %s", e.Op)
	}
	if e.Left == nil || e.Right == nil {
		return invalidf("operator %s requires two operands", e.Op)
	}

	switch {
	case e.Op.IsLogical():
		for _, side := range []Operand{e.Left, e.Right} {
			sub, ok := side.(*Expr)
			if !ok || sub == nil || !(sub.Op.IsComparison() || sub.Op.IsLogical()) {
				return invalidf("operator %s requires comparison or logical operands", e.Op)
			}
		}
	case e.Op.IsComparison():
		_, leftLit := e.Left.(Literal)
		_, rightLit := e.Right.(Literal)
		if leftLit && rightLit {
			return invalidf("comparison %s needs at least one field operand", e.Op)
		}
	}

	for _, side := range []Operand{e.Left, e.Right} {
		if sub, ok := side.(*Expr); ok {
			if err := validateExpr(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render validates c and renders it as infix TaxiQL.
func Render(c Criterion, resolve ResolveFunc) (string, error) {
	if err := Validate(c); err != nil {
		return "", err
	}
	return renderOperand(c, resolve, false)
}

func renderOperand(o Operand, resolve ResolveFunc, nested bool) (string, error) {
	switch op := o.(type) {
	case Field:
		return renderField(op, resolve)
	case *Field:
		return renderField(*op, resolve)
	case Literal:
		return RenderLiteral(op.Value)
	case *Literal:
		return RenderLiteral(op.Value)
	case *Expr:
		left, err := renderOperand(op.Left, resolve, true)
		if err != nil {
			return "", err
		}
		right, err := renderOperand(op.Right, resolve, true)
		if err != nil {
			return "", err
		}
		s := left + " " + op.Op.Symbol() + " " + right
		if nested {
			return "(" + s + ")", nil
		}
		return s, nil
	default:
		return "", invalidf("unsupported operand type %T", o)
	}
}

func renderField(f Field, resolve ResolveFunc) (string, error) {
	res, err := resolve(f.Type)
	if err != nil {
		return "", err
	}
	// Structural types have no data-type name to compare on, even when
	// their host type is named.
	name := res.Name
	if name == "" {
		return "", typedesc.NewMissingDataTypeError(f.Type, "")
	}
	if res.Collection {
		name += "[]"
	}
	return name, nil
}

// RenderLiteral renders a constant in TaxiQL syntax. Strings are NFC
// normalised and double-quoted.
func RenderLiteral(v any) (string, error) {
	if v == nil {
		return "", invalidf("null literals are not supported")
	}
	if t, ok := v.(time.Time); ok {
		return quote(t.Format(time.RFC3339Nano)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return quote(rv.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", invalidf("non-finite number %v", f)
		}
		return strconv.FormatFloat(f, 'g', -1, rv.Type().Bits()), nil
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			t := rv.Convert(timeType).Interface().(time.Time)
			return quote(t.Format(time.RFC3339Nano)), nil
		}
	}
	return "", invalidf("unsupported literal type %T", v)
}

func quote(s string) string {
	return `"` + stringEscaper.Replace(norm.NFC.String(s)) + `"`
}
