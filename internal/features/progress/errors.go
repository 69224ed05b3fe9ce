package progress

import "errors"

var ErrMissingFields = errors.New("required fields are missing")
