package catalog

import "errors"

// ErrCatalog marks a catalog that could not be read or is invalid.
var ErrCatalog = errors.New("invalid catalog")
