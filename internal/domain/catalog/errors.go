package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("catalog entry not found")
	ErrNetwork  = errors.New("catalog unavailable")
	ErrNotReady = errors.New("catalog not loaded")
)

type NetworkError struct {
	Op  string
	Err error
}

func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
