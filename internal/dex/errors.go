package dex

import "errors"

var (
	// ErrConfiguration marks caller or configuration mistakes detected before any I/O
	ErrConfiguration = errors.New("dex configuration error")
	// ErrNotFound means a required output or data source is missing
	ErrNotFound = errors.New("not found")
)
