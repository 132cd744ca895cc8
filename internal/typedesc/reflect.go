package typedesc

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tagged is implemented by Go types that declare their TaxiQL data type.
//
//	type FirstName string
//
//	func (FirstName) DataType() string { return "FirstName" }
//
// Pointer receivers are honoured too.
type Tagged interface {
	DataType() string
}

// Struct tags read by the reflect binding.
const (
	// TagTaxi overrides a field's data type (`taxi:"FirstName"`) or
	// excludes it (`taxi:"-"`).
	TagTaxi = "taxi"
	// TagJSON supplies the field name, matching how payloads decode.
	TagJSON = "json"
)

var taggedType = reflect.TypeFor[Tagged]()

// Of returns the descriptor for T.
func Of[T any]() Descriptor {
	return FromType(reflect.TypeFor[T]())
}

// FromType returns the descriptor for t. Pointer types are peeled, so
// *Person and Person yield the same descriptor.
func FromType(t reflect.Type) Descriptor {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflectType{t: t}
}

// reflectType binds a Go type. It is a comparable value, so two
// descriptors for the same Go type are ==.
type reflectType struct {
	t reflect.Type
}

func (r reflectType) Kind() Kind {
	if r.t == nil {
		return KindWildcard
	}
	if _, ok := dataTypeOf(r.t); ok {
		return KindSimple
	}
	switch r.t.Kind() {
	case reflect.Slice, reflect.Array:
		if r.t.Elem().Kind() == reflect.Uint8 {
			return KindSimple
		}
		return KindCollection
	case reflect.Interface:
		return KindWildcard
	default:
		return KindSimple
	}
}

func (r reflectType) Elem() Descriptor {
	if r.Kind() != KindCollection {
		// Interface types carry no upper bound in Go.
		return nil
	}
	return FromType(r.t.Elem())
}

func (r reflectType) DataType() (string, bool) {
	if r.t == nil {
		return "", false
	}
	return dataTypeOf(r.t)
}

func (r reflectType) Structural() bool {
	return r.t != nil && r.t.Kind() == reflect.Struct
}

func (r reflectType) Fields() []Field {
	if !r.Structural() {
		return nil
	}
	var fields []Field
	for _, sf := range reflect.VisibleFields(r.t) {
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && derefType(sf.Type).Kind() == reflect.Struct {
			// Promoted fields are listed separately by VisibleFields.
			continue
		}
		taxiTag := sf.Tag.Get(TagTaxi)
		if taxiTag == "-" {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}
		var d Descriptor
		if taxiTag != "" {
			d = fieldTag{name: taxiTag, collection: FromType(sf.Type).Kind() == KindCollection}
		} else {
			d = FromType(sf.Type)
		}
		fields = append(fields, Field{Name: name, Type: d})
	}
	return fields
}

func (r reflectType) TypeName() string {
	if r.t == nil {
		return ""
	}
	return r.t.Name()
}

func (r reflectType) String() string {
	if r.t == nil {
		return "<nil>"
	}
	return r.t.String()
}

// fieldTag is the descriptor produced by a `taxi:"..."` struct tag.
type fieldTag struct {
	name       string
	collection bool
}

func (f fieldTag) Kind() Kind {
	if f.collection {
		return KindCollection
	}
	return KindSimple
}

func (f fieldTag) Elem() Descriptor {
	if !f.collection {
		return nil
	}
	return fieldTag{name: f.name}
}

func (f fieldTag) DataType() (string, bool) {
	if f.collection {
		return "", false
	}
	return f.name, true
}

func (f fieldTag) Structural() bool { return false }
func (f fieldTag) Fields() []Field  { return nil }
func (f fieldTag) TypeName() string { return f.name }

func (f fieldTag) String() string {
	if f.collection {
		return "[]" + f.name
	}
	return f.name
}

// dataTypeOf reads the Tagged declaration of t without requiring a value.
func dataTypeOf(t reflect.Type) (string, bool) {
	if t.Kind() == reflect.Interface {
		return "", false
	}
	if t.Implements(taggedType) {
		return reflect.Zero(t).Interface().(Tagged).DataType(), true
	}
	if reflect.PointerTo(t).Implements(taggedType) {
		return reflect.New(t).Interface().(Tagged).DataType(), true
	}
	return "", false
}

// fieldName returns the structural field name: the json tag name when
// present, otherwise the Go name with a lower-case first letter.
func fieldName(sf reflect.StructField) (string, bool) {
	if tag, ok := sf.Tag.Lookup(TagJSON); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return lowerFirst(sf.Name), false
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
