package i18n

import "errors"

// ErrLoadCatalog reports an unreadable or invalid message catalog.
var ErrLoadCatalog = errors.New("load message catalog failed")
