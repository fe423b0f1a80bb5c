package common

import "errors"

// Error categories shared by every ledger module. Module errors wrap one of
// these with %w so callers can classify failures via errors.Is.
var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInactive           = errors.New("inactive")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidField       = errors.New("invalid field")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTransferFailed     = errors.New("transfer failed")
)

// Category returns the taxonomy sentinel wrapped by err, or nil when err does
// not belong to the ledger taxonomy.
func Category(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrTransferFailed,
		ErrNotAuthorized,
		ErrNotFound,
		ErrAlreadyExists,
		ErrInactive,
		ErrInvalidAmount,
		ErrInvalidDuration,
		ErrInvalidField,
		ErrInsufficientPoints,
		ErrInsufficientFunds,
		ErrModulePaused,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
