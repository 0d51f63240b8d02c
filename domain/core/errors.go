package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrFormat   = errors.New("malformed input")
	ErrArgument = errors.New("invalid argument")
	ErrResource = errors.New("data source unreadable")

	// Fitting errors
	ErrFitDivergence = errors.New("fit did not converge")

	// Store errors
	ErrNotFound    = errors.New("resource not found")
	ErrFitNotFound = fmt.Errorf("%w: fit result", ErrNotFound)
)

// FormatError reports an input line that does not have the expected shape.
type FormatError struct {
	Line   int // zero-based line index
	Fields int
	Want   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: line %d: %s", ErrFormat, e.Line, e.Reason)
	}
	return fmt.Sprintf("%v: line %d has %d fields, want at least %d", ErrFormat, e.Line, e.Fields, e.Want)
}

// Is makes errors.Is(err, ErrFormat) hold for every FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Error constructors with context
func NewFormatError(line, fields, want int) error {
	return &FormatError{Line: line, Fields: fields, Want: want}
}

func NewValueFormatError(line int, value string, cause error) error {
	return &FormatError{Line: line, Reason: fmt.Sprintf("cannot parse %q as a number: %v", value, cause)}
}

func NewArgumentError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrArgument, fmt.Sprintf(format, args...))
}

func NewLengthMismatchError(what string, a, b int) error {
	return fmt.Errorf("%w: %s have different lengths (%d vs %d)", ErrArgument, what, a, b)
}

func NewDivergenceError(reason string, iterations int) error {
	return fmt.Errorf("%w after %d iterations: %s", ErrFitDivergence, iterations, reason)
}

func NewResourceError(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrResource, source, err)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewFitNotFoundError(id string) error {
	return fmt.Errorf("%w with id %s", ErrFitNotFound, id)
}

// Error checking helpers
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

func IsArgumentError(err error) bool {
	return errors.Is(err, ErrArgument)
}

func IsDivergenceError(err error) bool {
	return errors.Is(err, ErrFitDivergence)
}

func IsResourceError(err error) bool {
	return errors.Is(err, ErrResource)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports errors caused by the caller's data rather than the fit.
func IsInputError(err error) bool {
	return IsFormatError(err) || IsArgumentError(err)
}
