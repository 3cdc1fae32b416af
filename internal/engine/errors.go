package engine

import (
	"errors"
	"fmt"
)

// RunErrorCode categorizes convergence run errors.
type RunErrorCode string

const (
	// ErrCodeConfig indicates a missing or invalid required path or
	// profile. Always fatal, raised before any mutation.
	ErrCodeConfig RunErrorCode = "CONFIG_ERROR"

	// ErrCodeCatalog indicates a catalog enumeration or export
	// failure. Fatal when enumeration itself fails, per-record when
	// scoped to one export.
	ErrCodeCatalog RunErrorCode = "CATALOG_ERROR"

	// ErrCodeFileSystem indicates a copy, rename, delete, read or
	// write failure. Always per-record or per-cleanup-item.
	ErrCodeFileSystem RunErrorCode = "FILESYSTEM_ERROR"

	// ErrCodeNoFormat indicates a record whose available formats do
	// not intersect the supported set.
	ErrCodeNoFormat RunErrorCode = "NO_FORMAT"
)

// RunError is an error detected during a convergence run, carrying the
// record it is scoped to when there is one.
type RunError struct {
	Code        RunErrorCode `json:"code"`
	Message     string       `json:"message"`
	RecordID    int64        `json:"record_id,omitempty"`
	RecordTitle string       `json:"record_title,omitempty"`
	Path        string       `json:"path,omitempty"`
	Err         error        `json:"-"`
}

// Error implements the error interface.
func (e *RunError) Error() string {
	switch {
	case e.RecordID != 0:
		return fmt.Sprintf("%s: %s (record %d %q)", e.Code, e.Message, e.RecordID, e.RecordTitle)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (path %s)", e.Code, e.Message, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// newRecordError builds a per-record RunError.
func newRecordError(code RunErrorCode, id int64, title string, err error) *RunError {
	return &RunError{
		Code:        code,
		Message:     err.Error(),
		RecordID:    id,
		RecordTitle: title,
		Err:         err,
	}
}

// IsRunError reports whether err is a RunError with the given code.
func IsRunError(err error, code RunErrorCode) bool {
	var runErr *RunError
	return errors.As(err, &runErr) && runErr.Code == code
}
