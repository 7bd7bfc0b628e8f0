package domain

import "errors"

// Failure taxonomy for ledger operations. Every failure is raised before any
// state mutation and surfaces its specific kind so callers can branch on
// cause with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidOption   = errors.New("invalid option")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDuration = errors.New("invalid duration")

	ErrMarketEnded           = errors.New("market has ended")
	ErrMarketNotEnded        = errors.New("market has not ended")
	ErrMarketAlreadyResolved = errors.New("market already resolved")
	ErrMarketNotResolved     = errors.New("market not resolved")

	ErrStillInDisputePeriod   = errors.New("still in dispute period")
	ErrDisputePeriodEnded     = errors.New("dispute period has ended")
	ErrSameWinner             = errors.New("proposed winner matches current winner")
	ErrInsufficientBond       = errors.New("dispute bond below minimum")
	ErrDisputeAlreadyResolved = errors.New("dispute already resolved")

	ErrOnlyAdmin         = errors.New("caller is not an admin")
	ErrOnlyOwner         = errors.New("caller is not the owner")
	ErrCannotRemoveOwner = errors.New("owner cannot be removed")

	ErrNoWinningPosition = errors.New("no winning position")
	ErrAlreadyClaimed    = errors.New("rewards already claimed")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLockHeld          = errors.New("lock already held")
)
