// Package statement renders TaxiQL statements from resolved types.
//
// A statement has a verb clause, an optional criterion inside the verb
// clause, and an optional projection clause:
//
//	find { Person[]( FirstName == "Jimmy" ) } as {
//	  firstName: FirstName
//	  address: Address
//	}[]
//
// Rendering is pure: it never suspends, never mutates its inputs, and
// either returns a complete statement or an error.
package statement

import (
	"fmt"
	"strings"

	"github.com/roach88/orbital/internal/criteria"
	"github.com/roach88/orbital/internal/typedesc"
)

const (
	collectionMarker = "[]"
	fieldIndent      = "  "
)

// Request holds everything a statement is rendered from.
type Request struct {
	Verb Verb

	// Source is the type being queried.
	Source typedesc.Descriptor

	// Target is the projection type. nil or the same descriptor as Source
	// means no projection.
	Target typedesc.Descriptor

	// Criterion is the optional filter.
	Criterion criteria.Criterion
}

// Generator renders statements.
type Generator struct {
	// Namespace qualifies synthesized names of untagged structural types.
	Namespace string
}

// NewGenerator creates a Generator.
func NewGenerator(namespace string) *Generator {
	return &Generator{Namespace: namespace}
}

// Render renders req as a TaxiQL statement.
//
// A fresh Resolver is used for every call, so resolution results are cached
// within one render and never across renders.
func (g *Generator) Render(req Request) (string, error) {
	if !req.Verb.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVerb, string(req.Verb))
	}
	if req.Source == nil {
		return "", typedesc.NewMissingDataTypeError(nil, "")
	}

	resolver := typedesc.NewResolver(g.Namespace)

	source, err := resolver.Resolve(req.Source)
	if err != nil {
		return "", fmt.Errorf("resolve source: %w", err)
	}
	if source.IsStructural() {
		return "", &typedesc.ResolveError{
			Code:    typedesc.ErrCodeMissingDataType,
			Message: "query source must declare a data type",
			Type:    req.Source.String(),
		}
	}

	var criterion string
	if req.Criterion != nil {
		criterion, err = criteria.Render(req.Criterion, resolver.Resolve)
		if err != nil {
			return "", fmt.Errorf("render criterion: %w", err)
		}
	}

	verbClause := renderVerbClause(req.Verb, source, criterion)

	var projection string
	if req.Target != nil && !typedesc.Same(req.Source, req.Target) {
		target, err := resolver.Resolve(req.Target)
		if err != nil {
			return "", fmt.Errorf("resolve target: %w", err)
		}
		projection = renderProjection(req.Verb, target)
	}

	return strings.TrimSpace(verbClause + " " + projection), nil
}

// renderVerbClause renders "<verb> { <Name>[]?( <criterion> )? }".
func renderVerbClause(verb Verb, source typedesc.Resolved, criterion string) string {
	var b strings.Builder
	b.WriteString(source.Name)
	if source.Collection {
		b.WriteString(collectionMarker)
	}
	if criterion != "" {
		b.WriteString("( ")
		b.WriteString(criterion)
		b.WriteString(" )")
	}
	return fmt.Sprintf("%s { %s }", verb, b.String())
}

// renderProjection renders the projection clause: a bare data-type name
// for tagged targets, an "as { ... }" block for structural ones. A Stream
// verb always yields a sequence, so it forces the collection marker.
func renderProjection(verb Verb, target typedesc.Resolved) string {
	suffix := ""
	if target.Collection || verb == Stream {
		suffix = collectionMarker
	}

	if !target.IsStructural() {
		return target.Name + suffix
	}

	if len(target.Fields) == 0 {
		return "as {}" + suffix
	}

	lines := make([]string, len(target.Fields))
	for i, f := range target.Fields {
		lines[i] = fieldIndent + renderField(f)
	}
	return "as {\n" + strings.Join(lines, "\n") + "\n}" + suffix
}

// renderField renders "name: Type[]?". Anonymous field types render
// inline; the resolver has already rejected deeper anonymous nesting.
func renderField(f typedesc.ResolvedField) string {
	return f.Name + ": " + renderFieldType(f.Type)
}

func renderFieldType(t typedesc.Resolved) string {
	var s string
	if ref := t.Ref(); ref != "" {
		s = ref
	} else {
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = renderField(f)
		}
		s = "{ " + strings.Join(parts, " ") + " }"
		if len(parts) == 0 {
			s = "{}"
		}
	}
	if t.Collection {
		s += collectionMarker
	}
	return s
}

// Equivalent reports whether two statements are equal ignoring all
// whitespace. Projection blocks may be laid out freely, so statements are
// compared semantically rather than literally.
func Equivalent(a, b string) bool {
	return stripWhitespace(a) == stripWhitespace(b)
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
