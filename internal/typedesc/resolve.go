package typedesc

import "strings"

// maxWrapperDepth bounds how many collection/wildcard layers are peeled
// before resolution gives up.
const maxWrapperDepth = 64

// Resolved is the TaxiQL view of a descriptor. It is immutable once built.
type Resolved struct {
	// Name is the declared data-type tag. Empty means structural.
	Name string

	// Collection is true if any wrapper layer was a collection.
	Collection bool

	// Fields lists the structural fields in declaration order. It is nil for
	// named types and for nested named structural types, which are not
	// enumerated.
	Fields []ResolvedField

	// Synthesized is the namespace-qualified host type name of an untagged
	// structural type, used when it appears as a field type.
	Synthesized string
}

// ResolvedField is one field of a structural Resolved.
type ResolvedField struct {
	Name string
	Type Resolved
}

// IsStructural reports whether r has no declared data-type name.
func (r Resolved) IsStructural() bool {
	return r.Name == ""
}

// Ref returns the name a field of this type renders with: the declared
// name, otherwise the synthesized one. Anonymous types return "".
func (r Resolved) Ref() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Synthesized
}

// Resolver resolves descriptors and memoises the results.
// A Resolver is meant to live for one statement render; it is not safe for
// concurrent use.
type Resolver struct {
	// Namespace qualifies synthesized names, e.g. "films" → "films.Review".
	Namespace string

	cache map[cacheKey]Resolved
}

type cacheKey struct {
	d     Descriptor
	depth int
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver(namespace string) *Resolver {
	return &Resolver{
		Namespace: namespace,
		cache:     make(map[cacheKey]Resolved),
	}
}

// Resolve walks d and returns its resolved type.
//
// Errors are *ResolveError values and are always configuration errors.
func (r *Resolver) Resolve(d Descriptor) (Resolved, error) {
	if r.cache == nil {
		r.cache = make(map[cacheKey]Resolved)
	}
	return r.resolve(d, 0, "")
}

func (r *Resolver) resolve(d Descriptor, depth int, path string) (Resolved, error) {
	if d == nil {
		return Resolved{}, NewMissingDataTypeError(d, path)
	}

	key := cacheKey{d: d, depth: min(depth, 2)}
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}

	inner, collection, err := peel(d, path)
	if err != nil {
		return Resolved{}, err
	}

	res, err := r.resolveInner(inner, depth, path)
	if err != nil {
		return Resolved{}, err
	}
	res.Collection = collection

	r.cache[key] = res
	return res, nil
}

// peel strips wildcard and collection layers. Each iteration removes one
// layer, so the loop is bounded by the wrapper depth.
func peel(d Descriptor, path string) (Descriptor, bool, error) {
	collection := false
	for i := 0; ; i++ {
		if i >= maxWrapperDepth {
			return nil, false, &ResolveError{
				Code:    ErrCodeWrapperDepth,
				Message: "too many collection or wildcard layers",
				Type:    describe(d),
				Path:    path,
			}
		}
		switch d.Kind() {
		case KindWildcard:
			upper := d.Elem()
			if upper == nil {
				return nil, false, &ResolveError{
					Code:    ErrCodeUnboundedWildcard,
					Message: "wildcard has no upper bound",
					Type:    describe(d),
					Path:    path,
				}
			}
			d = upper
		case KindCollection:
			elem := d.Elem()
			if elem == nil {
				return nil, false, NewMissingDataTypeError(d, path)
			}
			collection = true
			d = elem
		default:
			return d, collection, nil
		}
	}
}

func (r *Resolver) resolveInner(d Descriptor, depth int, path string) (Resolved, error) {
	if name, ok := d.DataType(); ok {
		return Resolved{Name: name}, nil
	}

	if !d.Structural() {
		return Resolved{}, NewMissingDataTypeError(d, path)
	}

	synthesized := r.qualify(d.TypeName())

	// Named field types render by name; their fields are not walked.
	if depth > 0 && synthesized != "" {
		return Resolved{Synthesized: synthesized}, nil
	}

	if depth > 1 {
		return Resolved{}, &ResolveError{
			Code:    ErrCodeNestedAnonymous,
			Message: "anonymous types nested inside anonymous field types are not supported",
			Type:    describe(d),
			Path:    path,
		}
	}

	fields := d.Fields()
	resolved := make([]ResolvedField, 0, len(fields))
	for _, f := range fields {
		ft, err := r.resolve(f.Type, depth+1, joinPath(path, f.Name))
		if err != nil {
			return Resolved{}, err
		}
		resolved = append(resolved, ResolvedField{Name: f.Name, Type: ft})
	}

	return Resolved{Fields: resolved, Synthesized: synthesized}, nil
}

func (r *Resolver) qualify(name string) string {
	if name == "" || r.Namespace == "" {
		return name
	}
	return r.Namespace + "." + name
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return strings.Join([]string{parent, name}, ".")
}
