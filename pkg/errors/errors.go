// Package errors provides structured error types for tabular preprocessing
// operations.
//
// The package defines a small taxonomy of errors shared by every pipeline
// stage:
//
//   - NotFittedError: a stage was asked to transform before being fitted
//   - DimensionError: shape mismatch between fitted and supplied data
//   - ValueError: an invalid value or argument for an operation
//   - ValidationError: a named field failed validation
//   - ModelError: an operation failed with an underlying cause
//
// All types implement the Go 1.13+ error interfaces, so errors.Is and
// errors.As work through arbitrary wrapping. Wrap, Wrapf and Newf delegate
// to github.com/cockroachdb/errors so that %+v formatting carries stack
// traces through the whole chain.
package errors

import (
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// Sentinel errors for common failure conditions. Compare with errors.Is.
var (
	// ErrEmptyData indicates an operation received a table or matrix with
	// no rows or no columns.
	ErrEmptyData = crdberrors.New("empty data")

	// ErrMissingColumn indicates a named column was not found in the input.
	ErrMissingColumn = crdberrors.New("column not found")

	// ErrNotImplemented indicates a requested method or option is not
	// implemented.
	ErrNotImplemented = crdberrors.New("not implemented")
)

// NotFittedError is returned when Transform (or another method requiring
// learned state) is called on a stage that has not been fitted.
type NotFittedError struct {
	// ModelName is the stage or estimator type, e.g. "CategoricalEncoder".
	ModelName string

	// Method is the method that was rejected, e.g. "Transform".
	Method string
}

// NewNotFittedError creates a NotFittedError for the given stage and method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tabprep: %s is not fitted, call Fit before %s", e.ModelName, e.Method)
}

// DimensionError reports a mismatch between an expected and an actual
// dimension, such as a feature-count difference between fit and transform.
type DimensionError struct {
	// Op is the operation that detected the mismatch.
	Op string

	// Expected is the dimension learned at fit time.
	Expected int

	// Got is the dimension seen in the supplied data.
	Got int

	// Axis is the axis the mismatch occurred on (0 = rows, 1 = columns).
	Axis int
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("tabprep: %s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// ValueError reports an invalid value or argument.
type ValueError struct {
	// Op is the operation that rejected the value.
	Op string

	// Message describes what was wrong.
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tabprep: %s: %s", e.Op, e.Message)
}

// ValidationError reports that a named field or parameter failed validation.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tabprep: validation failed for %s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ModelError wraps an underlying error with operation context.
type ModelError struct {
	// Op is the operation that failed, e.g. "CategoricalEncoder.Fit".
	Op string

	// Message describes the failure.
	Message string

	// Err is the underlying cause, often a sentinel from this package.
	Err error
}

// NewModelError creates a ModelError wrapping cause.
func NewModelError(op, message string, cause error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: cause}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tabprep: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("tabprep: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// New creates a new error with a stack trace attached.
func New(msg string) error {
	return crdberrors.New(msg)
}

// Newf creates a new formatted error with a stack trace attached.
func Newf(format string, args ...interface{}) error {
	return crdberrors.Newf(format, args...)
}

// Wrap annotates err with a message, preserving the chain for errors.Is.
// Returns nil when err is nil.
func Wrap(err error, msg string) error {
	return crdberrors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdberrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return crdberrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return crdberrors.As(err, target)
}

// Recover converts a panic inside an operation into an error assigned to
// *errp. Use as a deferred call at the top of exported methods:
//
//	func (e *CategoricalEncoder) Fit(t *table.Table) (err error) {
//		defer errors.Recover(&err, "CategoricalEncoder.Fit")
//		...
//	}
//
// An existing error in *errp is never overwritten by a nil recovery.
func Recover(errp *error, op string) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*errp = crdberrors.Wrapf(e, "tabprep: panic in %s", op)
			return
		}
		*errp = crdberrors.Newf("tabprep: panic in %s: %v", op, r)
	}
}
