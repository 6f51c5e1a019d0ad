package session

import "errors"

var (
	ErrInvalidDevice = errors.New("invalid device id")
	ErrUnauthorized  = errors.New("unauthorized")
)
