package catalog

import "errors"

var (
	ErrMissingFields   = errors.New("required fields are missing")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrContentNotFound = errors.New("content not found")
)
