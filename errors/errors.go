package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError records a data-quality problem with a single field of a case.
// It is informational: the field degrades to its null value and processing
// continues.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v (value: %v)", e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Data-quality errors. These never abort a batch.
var (
	ErrInvalidDate     = fmt.Errorf("invalid date")
	ErrInvalidNumber   = fmt.Errorf("invalid number")
	ErrMissingField    = fmt.Errorf("missing field")
	ErrUnknownCategory = fmt.Errorf("unknown category")
)

// Caller contract violations. These are fatal.
var (
	ErrInvalidGroupBy = fmt.Errorf("invalid group by")
	ErrInvalidFormat  = fmt.Errorf("invalid output format")
)
