package order

import "errors"

var (
	ErrEmptyOrder       = errors.New("no items to order")
	ErrInvalidRecipient = errors.New("invalid order recipient")
	ErrDelivery         = errors.New("order could not be delivered")
)
