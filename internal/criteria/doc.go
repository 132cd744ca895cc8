// Package criteria models TaxiQL filter expressions.
//
// A Criterion is a small expression tree: an Operator applied to two
// Operands. Operands are sealed to this package:
//
//	Field   - a value identified by its data type, e.g. FirstName
//	Literal - a constant: string, number, bool or time
//	*Expr   - a nested expression
//
// Callers build a single comparison fluently and combine comparisons
// explicitly with And/Or:
//
//	c := criteria.And(
//	    criteria.On(typedesc.Of[FirstName]()).Eq("Jimmy"),
//	    criteria.On(typedesc.Of[Age]()).Gt(21),
//	)
//
// Render produces infix TaxiQL, parenthesising nested expressions:
//
//	(FirstName == "Jimmy") && (Age > 21)
package criteria
