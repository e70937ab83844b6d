// Package errors provides standardized error types and helpers for the diffsig codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates the input path did not resolve to a readable file
	ErrNotFound = errors.New("not found")
	// ErrIO indicates the store could not be read despite existing
	ErrIO = errors.New("i/o error")
	// ErrSchema indicates the store does not have the shape of a diff result
	ErrSchema = errors.New("schema mismatch")
	// ErrCallback indicates a match sink rejected a row
	ErrCallback = errors.New("callback rejected match")
)

// NotFoundError represents a path that did not resolve to a readable file
type NotFoundError struct {
	Path string // Path that failed to resolve
	Err  error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("diff result not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() []error {
	errs := []error{ErrNotFound}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "stat", "open", "query")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() []error {
	errs := []error{ErrIO}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// SchemaError represents a store that exists but does not match the
// diff-result schema: missing tables or columns, a wrong metadata row
// count, or an address value outside the declared width.
type SchemaError struct {
	Path    string // Store path
	Table   string // Table involved, if applicable
	Message string // Error details, including expected vs. actual where known
	Err     error  // Underlying error, if any
}

func (e *SchemaError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("schema mismatch in %s (table %q): %s", e.Path, e.Table, e.Message)
	}
	return fmt.Sprintf("schema mismatch in %s: %s", e.Path, e.Message)
}

func (e *SchemaError) Unwrap() []error {
	errs := []error{ErrSchema}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CallbackError represents a match sink rejecting a row. It carries the
// offending address pair and the granularity being dispatched so callers
// can report the failure without re-reading the store.
type CallbackError struct {
	Granularity string // Granularity being dispatched (e.g., "function")
	Primary     uint64 // Primary binary address of the rejected pair
	Secondary   uint64 // Secondary binary address of the rejected pair
	Err         error  // Error reported by the sink
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s match sink rejected pair (0x%08X, 0x%08X): %v",
		e.Granularity, e.Primary, e.Secondary, e.Err)
}

func (e *CallbackError) Unwrap() []error {
	errs := []error{ErrCallback}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(path string, err error) *NotFoundError {
	return &NotFoundError{
		Path: path,
		Err:  err,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewSchema creates a SchemaError
func NewSchema(path, table, message string) *SchemaError {
	return &SchemaError{
		Path:    path,
		Table:   table,
		Message: message,
	}
}

// NewCallback creates a CallbackError
func NewCallback(granularity string, primary, secondary uint64, err error) *CallbackError {
	return &CallbackError{
		Granularity: granularity,
		Primary:     primary,
		Secondary:   secondary,
		Err:         err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
