package criteria

import "fmt"

// Operator is a TaxiQL formula operator.
type Operator int

const (
	Add Operator = iota + 1
	Subtract
	Multiply
	Divide
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
	LogicalAnd
	LogicalOr
	Equal
	NotEqual
)

var operatorSymbols = map[Operator]string{
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "/",
	GreaterThan:        ">",
	LessThan:           "<",
	GreaterThanOrEqual: ">=",
	LessThanOrEqual:    "<=",
	LogicalAnd:         "&&",
	LogicalOr:          "||",
	Equal:              "==",
	NotEqual:           "!=",
}

// Symbol returns the operator's fixed TaxiQL symbol, or "" if unknown.
func (o Operator) Symbol() string {
	return operatorSymbols[o]
}

// String implements fmt.Stringer.
func (o Operator) String() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	_, ok := operatorSymbols[o]
	return ok
}

// IsArithmetic reports whether o is one of + - * /.
func (o Operator) IsArithmetic() bool {
	return o >= Add && o <= Divide
}

// IsComparison reports whether o compares two values.
func (o Operator) IsComparison() bool {
	switch o {
	case GreaterThan, LessThan, GreaterThanOrEqual, LessThanOrEqual, Equal, NotEqual:
		return true
	}
	return false
}

// IsLogical reports whether o is && or ||.
func (o Operator) IsLogical() bool {
	return o == LogicalAnd || o == LogicalOr
}

// ParseOperator returns the operator for a symbol such as "==".
func ParseOperator(symbol string) (Operator, error) {
	for op, s := range operatorSymbols {
		if s == symbol {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", symbol)
}
