package scope

import "errors"

// Sentinel errors returned by Resolve and ParseRef.
var (
	ErrUnknownEntity    = errors.New("scope: unknown entity")
	ErrUnknownAttribute = errors.New("scope: unknown attribute")
	ErrUnknownField     = errors.New("scope: REST field not fetched")
	ErrUnboundVariable  = errors.New("scope: unbound variable")
	ErrInvalidRef       = errors.New("scope: invalid reference")
)
