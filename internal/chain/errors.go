package chain

import "errors"

// Validation error kinds (§7 of the specification). Messages mirror the
// original implementation's wording since they are surfaced verbatim to
// peers in wireproto.ErrorResponse.
var (
	ErrInvalidDifficulty   = errors.New("Invalid difficulty")
	ErrInvalidReward       = errors.New("Invalid reward")
	ErrUnknownParent       = errors.New("Invalid prev_hash. Parent not found")
	ErrBadIndex            = errors.New("Invalid index")
	ErrInsufficientWork    = errors.New("Invalid hash. Did you really do the work?")
	ErrInvalidSignature    = errors.New("Invalid signature")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrBadNonce            = errors.New("Invalid transaction index")
)
