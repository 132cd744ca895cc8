package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/orbital/internal/criteria"
)

// ParseWhere parses a single comparison of the form
//
//	<Type> <op> <literal>
//
// where Type is declared in s, op is one of == != > < >= <=, and the
// literal is a double-quoted string, an integer, a float, or true/false.
func (s *Schema) ParseWhere(expr string) (criteria.Criterion, error) {
	i := strings.IndexAny(expr, "=!<>")
	if i <= 0 {
		return nil, fmt.Errorf("where %q: expected <Type> <op> <literal>", expr)
	}

	symbol := expr[i : i+1]
	if i+1 < len(expr) && expr[i+1] == '=' {
		symbol = expr[i : i+2]
	}
	op, err := criteria.ParseOperator(symbol)
	if err != nil || !op.IsComparison() {
		return nil, fmt.Errorf("where %q: unknown comparison %q", expr, symbol)
	}

	ref := strings.TrimSpace(expr[:i])
	field, err := s.Lookup(ref)
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", expr, err)
	}

	value, err := parseLiteral(strings.TrimSpace(expr[i+len(symbol):]))
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", expr, err)
	}
	return criteria.On(field).Compare(op, value), nil
}

// ParseWheres parses every expression and joins them with &&. No
// expressions means no criterion.
func (s *Schema) ParseWheres(exprs []string) (criteria.Criterion, error) {
	var combined criteria.Criterion
	for _, expr := range exprs {
		c, err := s.ParseWhere(expr)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = c
			continue
		}
		combined = criteria.And(combined, c)
	}
	return combined, nil
}

func parseLiteral(s string) (any, error) {
	switch {
	case s == "":
		return nil, fmt.Errorf("missing literal")
	case strings.HasPrefix(s, `"`):
		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s", s)
		}
		return v, nil
	case s == "true" || s == "false":
		return s == "true", nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("literal %s must be a quoted string, a number or a boolean", s)
}
