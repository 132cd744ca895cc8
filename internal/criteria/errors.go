package criteria

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes criterion errors.
type ErrorCode string

const (
	// ErrCodeAlreadySet indicates a second top-level criterion was attached.
	ErrCodeAlreadySet ErrorCode = "CRITERION_ALREADY_SET"

	// ErrCodeInvalid indicates a malformed expression tree.
	ErrCodeInvalid ErrorCode = "INVALID_CRITERION"
)

// CriterionError is a configuration error in the criteria model.
type CriterionError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *CriterionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAlreadySetError reports that a query already carries a criterion.
func NewAlreadySetError() *CriterionError {
	return &CriterionError{
		Code:    ErrCodeAlreadySet,
		Message: "criteria has already been set, compose criteria with And/Or instead of overwriting",
	}
}

func invalidf(format string, args ...any) *CriterionError {
	return &CriterionError{Code: ErrCodeInvalid, Message: fmt.Sprintf(format, args...)}
}

// IsCriterionError reports whether err is any CriterionError.
func IsCriterionError(err error) bool {
	var ce *CriterionError
	return errors.As(err, &ce)
}

// IsAlreadySet reports whether err is a duplicate-criterion error.
func IsAlreadySet(err error) bool {
	var ce *CriterionError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeAlreadySet
	}
	return false
}
