// Package schema declares type descriptors in CUE, for callers that have
// no Go types to describe a query with (the CLI, scripts, tests).
//
// Every entry under the top-level "type" struct is either named, with a
// dataType tag, or structural, with an ordered field list. Field types
// refer to other entries by key; a "[]" suffix marks a collection.
package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/orbital/internal/typedesc"
)

//go:embed schema.cue
var schemaSource string

const collectionSuffix = "[]"

// Schema is a compiled set of type declarations. It is immutable and safe
// for concurrent use.
type Schema struct {
	types map[string]*declared

	// collections memoises "X[]" descriptors so repeated references keep
	// descriptor identity.
	mu          sync.Mutex
	collections map[string]typedesc.Descriptor
}

// CompileString compiles CUE source.
func CompileString(src string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("types.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v)
}

// Compile validates v against the declaration shape and builds its
// descriptors.
func Compile(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	shape := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("compile declaration shape: %w", err)
	}
	v = shape.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{types: make(map[string]*declared)}

	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return s, nil
	}

	// First pass creates every declaration so fields may refer forwards.
	type pending struct {
		decl  *declared
		value cue.Value
	}
	var entries []pending

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		decl, err := parseDeclaration(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		s.types[decl.name] = decl
		entries = append(entries, pending{decl: decl, value: iter.Value()})
	}

	for _, e := range entries {
		if err := s.bindFields(e.decl, e.value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func parseDeclaration(name string, v cue.Value) (*declared, error) {
	dataTypeVal := v.LookupPath(cue.ParsePath("dataType"))
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))

	switch {
	case dataTypeVal.Exists() && fieldsVal.Exists():
		return nil, &CompileError{
			Field:   "type." + name,
			Message: "declare either dataType or fields, not both",
			Pos:     v.Pos(),
		}
	case dataTypeVal.Exists():
		tag, err := dataTypeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &declared{name: name, tag: tag}, nil
	case fieldsVal.Exists():
		return &declared{name: name, structural: true}, nil
	default:
		return nil, &CompileError{
			Field:   "type." + name,
			Message: "dataType or fields is required",
			Pos:     v.Pos(),
		}
	}
}

func (s *Schema) bindFields(d *declared, v cue.Value) error {
	if !d.structural {
		return nil
	}
	iter, err := v.LookupPath(cue.ParsePath("fields")).Fields()
	if err != nil {
		return formatCUEError(err)
	}

	d.fields = []typedesc.Field{}
	for iter.Next() {
		ref, err := iter.Value().String()
		if err != nil {
			return formatCUEError(err)
		}
		ft, err := s.Lookup(ref)
		if err != nil {
			return &CompileError{
				Field:   fmt.Sprintf("type.%s.fields.%s", d.name, iter.Selector().Unquoted()),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		d.fields = append(d.fields, typedesc.F(iter.Selector().Unquoted(), ft))
	}
	return nil
}

// Lookup returns the descriptor for a type reference such as "Person" or
// "Person[]". Every reference returns the same descriptor each time.
func (s *Schema) Lookup(ref string) (typedesc.Descriptor, error) {
	ref = strings.TrimSpace(ref)
	if base, ok := strings.CutSuffix(ref, collectionSuffix); ok {
		elem, err := s.Lookup(base)
		if err != nil {
			return nil, err
		}
		return s.collectionOf(ref, elem), nil
	}
	d, ok := s.types[ref]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", ref)
	}
	return d, nil
}

func (s *Schema) collectionOf(ref string, elem typedesc.Descriptor) typedesc.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.collections[ref]; ok {
		return d
	}
	if s.collections == nil {
		s.collections = make(map[string]typedesc.Descriptor)
	}
	d := typedesc.CollectionOf(elem)
	s.collections[ref] = d
	return d
}

// Names returns the declared type names, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared types.
func (s *Schema) Len() int {
	return len(s.types)
}

// declared is a descriptor built from a CUE declaration.
type declared struct {
	name       string
	tag        string
	structural bool
	fields     []typedesc.Field
}

func (d *declared) Kind() typedesc.Kind       { return typedesc.KindSimple }
func (d *declared) Elem() typedesc.Descriptor { return nil }
func (d *declared) Structural() bool          { return d.structural }
func (d *declared) TypeName() string          { return d.name }
func (d *declared) String() string            { return d.name }

func (d *declared) DataType() (string, bool) {
	return d.tag, !d.structural
}

func (d *declared) Fields() []typedesc.Field {
	out := make([]typedesc.Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// CompileError is a declaration error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
