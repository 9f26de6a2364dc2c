package store

import (
	"errors"
	"fmt"
)

// ErrStorage matches every StorageError via errors.Is.
var ErrStorage = errors.New("STORAGE")

// StorageError reports an underlying database failure. The message of the
// wrapped error is what callers see.
type StorageError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *StorageError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports ErrStorage as a match so callers need not know the concrete type.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, kind Kind, err error) error {
	return &StorageError{Op: op, Kind: kind, Err: err}
}
