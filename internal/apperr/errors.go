// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrStorage      = errors.New("storage failure")
	ErrEmptyContent = errors.New("empty content")
	ErrUnavailable  = errors.New("clipboard unavailable")
)
