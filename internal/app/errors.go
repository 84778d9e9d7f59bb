package service

import "errors"

// ErrNotStarted is returned by lookups made before Start or after Stop.
var ErrNotStarted = errors.New("survey service not started")
