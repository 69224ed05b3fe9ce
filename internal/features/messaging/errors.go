package messaging

import "errors"

var (
	ErrMissingFields = errors.New("required fields are missing")
	ErrSelfMessage   = errors.New("cannot message yourself")
)
