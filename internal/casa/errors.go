package casa

import "fmt"

// ValidationError indicates invalid input: a malformed descriptor, a
// cell whose shape conflicts with its column, or a bad table layout.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates a missing column, row, or table.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ChecksumError indicates a data-integrity failure: the digest of a
// fetched or cached artifact does not match the published digest.
type ChecksumError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("SHA256 digest mismatch for %s: %s != %s", e.Path, e.Actual, e.Expected)
}

// UndefinedCellError indicates a read of a cell that was never written.
type UndefinedCellError struct {
	Column string
	Row    int
}

func (e *UndefinedCellError) Error() string {
	return fmt.Sprintf("cell [%s, %d] is undefined", e.Column, e.Row)
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}
