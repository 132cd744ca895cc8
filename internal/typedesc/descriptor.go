package typedesc

import (
	"fmt"
	"strings"
)

// Kind distinguishes wrapper descriptors from plain ones.
type Kind int

const (
	// KindSimple is a plain type: tagged, structural, or neither.
	KindSimple Kind = iota + 1
	// KindCollection wraps exactly one element descriptor.
	KindCollection
	// KindWildcard wraps an optional upper bound.
	KindWildcard
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindCollection:
		return "collection"
	case KindWildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor is the capability interface the Resolver walks.
//
// Implementations must be comparable: the Resolver keys its cache on the
// descriptor and the statement generator elides the projection clause when
// source and target are the same descriptor.
type Descriptor interface {
	// Kind reports whether this descriptor is a collection or wildcard wrapper.
	Kind() Kind

	// Elem returns the element of a collection or the upper bound of a
	// wildcard. It returns nil for simple types and for unbounded wildcards.
	Elem() Descriptor

	// DataType returns the declared data-type tag, if any.
	DataType() (string, bool)

	// Structural reports whether the type has an enumerable field list.
	// A struct with zero fields is structural; a string is not.
	Structural() bool

	// Fields returns the structural fields in declaration order.
	Fields() []Field

	// TypeName returns the host type name, or "" for anonymous types.
	TypeName() string

	// String describes the type for diagnostics.
	String() string
}

// Field is a named member of a structural type.
type Field struct {
	Name string
	Type Descriptor
}

// F is shorthand for constructing a Field.
// Example: Struct("Target", F("firstName", Named("FirstName")))
func F(name string, d Descriptor) Field {
	return Field{Name: name, Type: d}
}

// Same reports whether a and b denote the same descriptor.
func Same(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

type named struct {
	tag string
}

// Named returns a simple descriptor carrying the given data-type tag.
// Each call returns a distinct descriptor.
func Named(tag string) Descriptor {
	return &named{tag: tag}
}

func (n *named) Kind() Kind               { return KindSimple }
func (n *named) Elem() Descriptor         { return nil }
func (n *named) DataType() (string, bool) { return n.tag, true }
func (n *named) Structural() bool         { return false }
func (n *named) Fields() []Field          { return nil }
func (n *named) TypeName() string         { return n.tag }
func (n *named) String() string           { return n.tag }

type structType struct {
	name   string
	fields []Field
}

// Struct returns an untagged structural descriptor. An empty name makes
// the type anonymous.
func Struct(name string, fields ...Field) Descriptor {
	return &structType{name: name, fields: fields}
}

func (s *structType) Kind() Kind               { return KindSimple }
func (s *structType) Elem() Descriptor         { return nil }
func (s *structType) DataType() (string, bool) { return "", false }
func (s *structType) Structural() bool         { return true }
func (s *structType) TypeName() string         { return s.name }

func (s *structType) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *structType) String() string {
	if s.name != "" {
		return s.name
	}
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return "struct{" + strings.Join(names, "; ") + "}"
}

type collection struct {
	elem Descriptor
}

// CollectionOf wraps elem in a collection.
func CollectionOf(elem Descriptor) Descriptor {
	return &collection{elem: elem}
}

func (c *collection) Kind() Kind               { return KindCollection }
func (c *collection) Elem() Descriptor         { return c.elem }
func (c *collection) DataType() (string, bool) { return "", false }
func (c *collection) Structural() bool         { return false }
func (c *collection) Fields() []Field          { return nil }
func (c *collection) TypeName() string         { return "" }

func (c *collection) String() string {
	if c.elem == nil {
		return "[]<nil>"
	}
	return "[]" + c.elem.String()
}

type wildcard struct {
	upper Descriptor
}

// Wildcard returns a wildcard bounded above by upper. A nil upper bound
// produces an unbounded wildcard, which never resolves.
func Wildcard(upper Descriptor) Descriptor {
	return &wildcard{upper: upper}
}

func (w *wildcard) Kind() Kind               { return KindWildcard }
func (w *wildcard) Elem() Descriptor         { return w.upper }
func (w *wildcard) DataType() (string, bool) { return "", false }
func (w *wildcard) Structural() bool         { return false }
func (w *wildcard) Fields() []Field          { return nil }
func (w *wildcard) TypeName() string         { return "" }

func (w *wildcard) String() string {
	if w.upper == nil {
		return "?"
	}
	return "? extends " + w.upper.String()
}
