package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orbital/internal/typedesc"
)

type FirstName string

func (FirstName) DataType() string { return "FirstName" }

type Age int

func (Age) DataType() string { return "Age" }

type ReleaseDate time.Time

func (ReleaseDate) DataType() string { return "films.ReleaseDate" }

type Untagged string

type Credits struct {
	Director FirstName
}

func resolver() ResolveFunc {
	return typedesc.NewResolver("").Resolve
}

func TestRender_Comparisons(t *testing.T) {
	field := On(typedesc.Of[FirstName]())

	testCases := []struct {
		name string
		expr *Expr
		want string
	}{
		{name: "eq string", expr: field.Eq("Jimmy"), want: `FirstName == "Jimmy"`},
		{name: "ne string", expr: field.Ne("Jimmy"), want: `FirstName != "Jimmy"`},
		{name: "gt int", expr: On(typedesc.Of[Age]()).Gt(21), want: `Age > 21`},
		{name: "lt int", expr: On(typedesc.Of[Age]()).Lt(65), want: `Age < 65`},
		{name: "ge int", expr: On(typedesc.Of[Age]()).Ge(18), want: `Age >= 18`},
		{name: "le float", expr: On(typedesc.Of[Age]()).Le(21.5), want: `Age <= 21.5`},
		{name: "typed literal", expr: field.Eq(FirstName("Jimmy")), want: `FirstName == "Jimmy"`},
		{name: "bool literal", expr: field.Eq(true), want: `FirstName == true`},
		{name: "compare generic", expr: field.Compare(NotEqual, "x"), want: `FirstName != "x"`},
		{name: "collection field", expr: On(typedesc.Of[[]FirstName]()).Eq("x"), want: `FirstName[] == "x"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Render(tc.expr, resolver())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRender_LogicalAndArithmetic(t *testing.T) {
	name := On(typedesc.Of[FirstName]())
	age := typedesc.Of[Age]()

	c := Or(
		And(name.Eq("Jimmy"), On(age).Gt(21)),
		name.Eq("Marty"),
	)
	got, err := Render(c, resolver())
	require.NoError(t, err)
	assert.Equal(t, `((FirstName == "Jimmy") && (Age > 21)) || (FirstName == "Marty")`, got)

	arith := &Expr{
		Op:    GreaterThan,
		Left:  Arith(Add, Field{Type: age}, Literal{Value: 10}),
		Right: Literal{Value: 30},
	}
	got, err = Render(arith, resolver())
	require.NoError(t, err)
	assert.Equal(t, `(Age + 10) > 30`, got)
}

func TestRender_Literals(t *testing.T) {
	released := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		value any
		want  string
	}{
		{name: "escapes quotes", value: `say "hi"`, want: `"say \"hi\""`},
		{name: "escapes backslash", value: `a\b`, want: `"a\\b"`},
		{name: "escapes newline", value: "a\nb", want: `"a\nb"`},
		{name: "nfc normalises", value: "Cafe\u0301", want: "\"Caf\u00e9\""},
		{name: "negative int", value: int64(-4), want: "-4"},
		{name: "uint", value: uint8(7), want: "7"},
		{name: "float32", value: float32(0.1), want: "0.1"},
		{name: "time", value: released, want: `"2024-03-01T12:00:00Z"`},
		{name: "named time", value: ReleaseDate(released), want: `"2024-03-01T12:00:00Z"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderLiteral(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderLiteral_Unsupported(t *testing.T) {
	for _, v := range []any{nil, []string{"a"}, map[string]int{}, struct{}{}} {
		_, err := RenderLiteral(v)
		assert.True(t, IsCriterionError(err), "value %#v", v)
	}
}

func TestValidate_Invalid(t *testing.T) {
	name := On(typedesc.Of[FirstName]())

	testCases := []struct {
		name string
		c    Criterion
	}{
		{name: "nil", c: nil},
		{name: "nil expr", c: (*Expr)(nil)},
		{name: "arithmetic top level", c: Arith(Add, Field{Type: typedesc.Of[Age]()}, Literal{Value: 1})},
		{name: "unknown operator", c: &Expr{Op: Operator(99), Left: Field{}, Right: Literal{Value: 1}}},
		{name: "missing operand", c: &Expr{Op: Equal, Left: Field{Type: typedesc.Of[Age]()}}},
		{name: "logical over literal", c: &Expr{Op: LogicalAnd, Left: name.Eq("a"), Right: Literal{Value: true}}},
		{name: "logical over arithmetic", c: &Expr{Op: LogicalOr, Left: name.Eq("a"), Right: Arith(Add, Literal{Value: 1}, Literal{Value: 2})}},
		{name: "literal comparison", c: &Expr{Op: Equal, Left: Literal{Value: 1}, Right: Literal{Value: 1}}},
		{name: "nested invalid", c: And(name.Eq("a"), &Expr{Op: Equal, Left: Literal{Value: 1}, Right: Literal{Value: 2}})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.c)
			require.Error(t, err)
			assert.True(t, IsCriterionError(err))
			assert.False(t, IsAlreadySet(err))
		})
	}
}

func TestRender_FieldResolutionErrors(t *testing.T) {
	_, err := Render(On(typedesc.Of[Untagged]()).Eq("x"), resolver())
	require.Error(t, err)
	assert.True(t, typedesc.IsMissingDataType(err))

	anonymous := typedesc.Struct("", typedesc.F("a", typedesc.Named("A")))
	_, err = Render(On(anonymous).Eq("x"), resolver())
	require.Error(t, err)
	assert.True(t, typedesc.IsMissingDataType(err))

	// A named host type without a data-type tag is still structural.
	_, err = Render(On(typedesc.Of[Credits]()).Eq("x"), resolver())
	require.Error(t, err)
	assert.True(t, typedesc.IsMissingDataType(err))

	_, err = Render(On(typedesc.Of[[]Credits]()).Eq("x"), typedesc.NewResolver("films").Resolve)
	require.Error(t, err)
	assert.True(t, typedesc.IsMissingDataType(err))
}

func TestOperator(t *testing.T) {
	for op, symbol := range operatorSymbols {
		parsed, err := ParseOperator(symbol)
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
		assert.Equal(t, symbol, op.Symbol())
		assert.Equal(t, 1, boolCount(op.IsArithmetic(), op.IsComparison(), op.IsLogical()),
			"operator %s must belong to exactly one family", op)
	}

	_, err := ParseOperator("=~")
	assert.Error(t, err)
	assert.Equal(t, "Operator(0)", Operator(0).String())
	assert.False(t, Operator(0).Valid())
}

func TestAlreadySetError(t *testing.T) {
	err := NewAlreadySetError()
	assert.True(t, IsAlreadySet(err))
	assert.Contains(t, err.Error(), string(ErrCodeAlreadySet))
}

func boolCount(values ...bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}
