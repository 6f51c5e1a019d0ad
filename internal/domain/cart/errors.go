package cart

import (
	"errors"
	"fmt"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10000")
	ErrInvalidLine     = errors.New("cart line is missing a photo id")
	ErrStorage         = errors.New("cart storage unavailable")
	ErrNoSelection     = errors.New("no photo is open for configuration")
)

// StorageError reports a failed store operation. It is retryable; reloading
// from the store is the recovery path.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cart storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
