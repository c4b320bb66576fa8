package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownKind   = errors.New("unknown event kind")
	ErrUnknownPeriod = errors.New("unknown trending period")
	ErrMalformed     = errors.New("malformed ledger document")
)
