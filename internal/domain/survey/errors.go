package survey

import "errors"

// Sentinel kinds for survey errors.
var (
	ErrNotFound      = errors.New("survey not found")
	ErrInactive      = errors.New("survey is not active")
	ErrFormNotListed = errors.New("form not found in formList")
)
