package model

import "errors"

// Error kinds surfaced by the matching core. Callers should use errors.Is
// against these sentinels rather than matching on message text.
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUnknownSymbol         = errors.New("unknown symbol")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrCascadeOverflow       = errors.New("cascade depth exceeded")
	ErrCrossedOrder          = errors.New("resting order would cross the book")
)
