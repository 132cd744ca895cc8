package typedesc

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeUnboundedWildcard indicates a wildcard with no upper bound.
	ErrCodeUnboundedWildcard ErrorCode = "UNBOUNDED_WILDCARD"

	// ErrCodeMissingDataType indicates a non-structural type with no data-type tag.
	ErrCodeMissingDataType ErrorCode = "MISSING_DATA_TYPE"

	// ErrCodeNestedAnonymous indicates an anonymous type nested inside an
	// anonymous field type, which is not supported.
	ErrCodeNestedAnonymous ErrorCode = "NESTED_ANONYMOUS_TYPE"

	// ErrCodeWrapperDepth indicates a descriptor chain that never bottoms out.
	ErrCodeWrapperDepth ErrorCode = "WRAPPER_DEPTH_EXCEEDED"
)

// ResolveError is a configuration error raised while resolving a descriptor.
// It is fatal and raised before any network activity.
type ResolveError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Type describes the offending descriptor.
	Type string

	// Path is the dotted field path from the root descriptor, empty at the root.
	Path string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (type=%s, path=%s)", e.Code, e.Message, e.Type, e.Path)
	}
	return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
}

// IsResolveError reports whether err is any ResolveError.
func IsResolveError(err error) bool {
	var re *ResolveError
	return errors.As(err, &re)
}

// IsUnboundedWildcard reports whether err is an unbounded wildcard error.
func IsUnboundedWildcard(err error) bool {
	return hasCode(err, ErrCodeUnboundedWildcard)
}

// IsMissingDataType reports whether err is a missing data-type error.
func IsMissingDataType(err error) bool {
	return hasCode(err, ErrCodeMissingDataType)
}

// IsNestedAnonymous reports whether err is a nested anonymous type error.
func IsNestedAnonymous(err error) bool {
	return hasCode(err, ErrCodeNestedAnonymous)
}

func hasCode(err error, code ErrorCode) bool {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewMissingDataTypeError creates a ResolveError for a type with no tag.
func NewMissingDataTypeError(d Descriptor, path string) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeMissingDataType,
		Message: "type does not declare a data type and is not structural",
		Type:    describe(d),
		Path:    path,
	}
}

func describe(d Descriptor) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}
