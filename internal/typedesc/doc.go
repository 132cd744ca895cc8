// Package typedesc resolves caller type descriptors to TaxiQL data-type names.
//
// A Descriptor is an opaque handle onto a host type. It may be a simple type,
// a collection of another Descriptor, or a bounded wildcard wrapping another
// Descriptor. The Resolver depends only on the Descriptor capability interface,
// never on a specific reflection facility, so several bindings coexist:
//
//   - the reflect binding (Of, FromType) walks Go types;
//   - the hand-built binding (Named, Struct, CollectionOf, Wildcard) is used by
//     tests and by callers without a Go type to describe;
//   - internal/schema provides descriptors declared in CUE files.
//
// RESOLUTION:
//
//	Wildcard(T)        → resolve(T)                 (unbounded: error)
//	Collection(T)      → resolve(T), Collection=true (nested collections flatten)
//	tagged T           → Name = tag
//	struct T           → structural, fields resolved in declaration order
//	anything else      → error (no data-type tag)
//
// Nested anonymous projection types are supported one level deep only. A
// named but untagged struct used as a field type renders by its synthesized
// name and its own fields are not enumerated.
//
// IDENTITY:
//
// Descriptors are compared with ==. Every binding in this module returns
// comparable values, and the Resolver memoises results per descriptor.
package typedesc
