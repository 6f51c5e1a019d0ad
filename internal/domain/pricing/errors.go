package pricing

import "errors"

var (
	ErrUnknownFrame = errors.New("unknown frame type")
	ErrUnknownSize  = errors.New("unknown image size")
)
