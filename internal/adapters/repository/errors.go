package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidSurvey = errors.New("invalid survey record")
	ErrClosed        = errors.New("survey store closed")
	ErrUnknownDriver = errors.New("unknown survey store driver")
)
