package models

import (
	"errors"
	"fmt"
)

// ErrorType is the category of a ComparisonError.
type ErrorType string

const (
	ErrParse             ErrorType = "parse error"
	ErrRuleConfig        ErrorType = "rule configuration error"
	ErrSchema            ErrorType = "schema error"
	ErrComparisonFailure ErrorType = "comparison failure"
)

// Code returns the numeric code reported to callers for the error type.
func (t ErrorType) Code() int {
	switch t {
	case ErrParse:
		return 1001
	case ErrRuleConfig:
		return 1002
	case ErrSchema:
		return 1003
	default:
		return 1004
	}
}

// ComparisonError is the typed error every comparator returns for bad input
// or bad rules.
type ComparisonError struct {
	Type ErrorType
	Code int
	Err  error
}

func (e *ComparisonError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %v", e.Type, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%d)", e.Type, e.Code)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

func newComparisonError(t ErrorType, format string, args ...interface{}) *ComparisonError {
	return &ComparisonError{Type: t, Code: t.Code(), Err: fmt.Errorf(format, args...)}
}

func NewParseError(format string, args ...interface{}) error {
	return newComparisonError(ErrParse, format, args...)
}

func NewRuleConfigError(format string, args ...interface{}) error {
	return newComparisonError(ErrRuleConfig, format, args...)
}

func NewSchemaError(format string, args ...interface{}) error {
	return newComparisonError(ErrSchema, format, args...)
}

func NewComparisonFailure(format string, args ...interface{}) error {
	return newComparisonError(ErrComparisonFailure, format, args...)
}

// IsErrorType reports whether err wraps a ComparisonError of type t.
func IsErrorType(err error, t ErrorType) bool {
	var ce *ComparisonError
	return errors.As(err, &ce) && ce.Type == t
}

// ErrorCode returns the code of the ComparisonError wrapped by err, or 0.
func ErrorCode(err error) int {
	var ce *ComparisonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
