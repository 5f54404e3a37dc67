package importer

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Sentinel errors. Row failures match them through RowError.Is.
var (
	// ErrMissingRequiredField marks a row without a usable name.
	ErrMissingRequiredField = eris.New("missing required field")
	// ErrStoreFailure marks a row whose lookup or write failed in the store.
	ErrStoreFailure = eris.New("store failure")
	// ErrRunFailure marks a run that could not produce a summary.
	ErrRunFailure = eris.New("import run failed")
)

// ErrorKind classifies a row-level failure.
type ErrorKind string

// Row error kinds.
const (
	KindMissingRequiredField ErrorKind = "missing_required_field"
	KindStoreWriteFailure    ErrorKind = "store_write_failure"
	KindStoreLookupFailure   ErrorKind = "store_lookup_failure"
)

// RowError is a recoverable failure of a single row.
type RowError struct {
	Position int
	Kind     ErrorKind
	Err      error
}

func (e *RowError) Error() string {
	if e.Kind == KindMissingRequiredField {
		return fmt.Sprintf("row %d: %s is required", e.Position, ColName)
	}
	return fmt.Sprintf("row %d: %s", e.Position, e.Err.Error())
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *RowError) Is(target error) bool {
	switch target {
	case ErrMissingRequiredField:
		return e.Kind == KindMissingRequiredField
	case ErrStoreFailure:
		return e.Kind == KindStoreWriteFailure || e.Kind == KindStoreLookupFailure
	}
	return false
}
