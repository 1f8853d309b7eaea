package app

import "errors"

// Sentinel errors for common application errors
var (
	ErrBrowser         = errors.New("browser could not be started")
	ErrInvalidArgument = errors.New("invalid argument")
)
