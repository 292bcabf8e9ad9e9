package store

import (
	"errors"
	"fmt"
)

// ErrDuplicateRecord is returned by RecordStore.Insert when a record for the
// same (person, event, date) triple already exists. Callers treat it as "the
// other racing scan won" and re-read instead of failing.
var ErrDuplicateRecord = errors.New("attendance record already exists")

// StorageError wraps a transient persistence failure. The whole pipeline
// call is safe to retry: no partial state is visible until a write commits.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the failing operation name.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
