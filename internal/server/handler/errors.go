package handler

import (
	"errors"
	"net/http"

	"github.com/openforecast/marketd/internal/domain"
)

// statusFor maps ledger sentinel errors to HTTP status codes. Unknown errors
// map to 500 and should be logged by the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrSameWinner),
		errors.Is(err, domain.ErrCannotRemoveOwner):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOnlyAdmin),
		errors.Is(err, domain.ErrOnlyOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrMarketEnded),
		errors.Is(err, domain.ErrMarketNotEnded),
		errors.Is(err, domain.ErrMarketAlreadyResolved),
		errors.Is(err, domain.ErrMarketNotResolved),
		errors.Is(err, domain.ErrStillInDisputePeriod),
		errors.Is(err, domain.ErrDisputePeriodEnded),
		errors.Is(err, domain.ErrDisputeAlreadyResolved),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrNoWinningPosition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBond),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// isClientError reports whether the mapped status is below 500, in which case
// the error text is safe to return to the caller.
func isClientError(err error) bool {
	return statusFor(err) < http.StatusInternalServerError
}
