package communicator

import (
	"errors"
	"fmt"
)

// Sentinel kinds for communicator errors.
var (
	ErrRequest       = errors.New("openrosa request failed")
	ErrInvalidList   = errors.New("invalid openrosa formList")
	ErrNoDownloadURL = errors.New("xform has no download url")
	ErrTooLarge      = errors.New("openrosa response too large")
)

// StatusError reports a non-2xx response from an OpenRosa server.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openrosa server responded with %d for %s", e.Status, e.URL)
}
