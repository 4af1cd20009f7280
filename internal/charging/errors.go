package charging

import (
	"context"
	"errors"

	"chargetracker-backend/internal/dock"
	"chargetracker-backend/internal/review"
	"chargetracker-backend/internal/store"
)

// Error codes reported to clients and used as metric labels.
const (
	CodeAlreadyCheckedIn = "already_checked_in"
	CodeDockUnavailable  = "dock_unavailable"
	CodeNotOccupant      = "not_occupant"
	CodeStaleState       = "stale_state"
	CodeNotFound         = "not_found"
	CodeInvalidInput     = "invalid_input"
	CodeCanceled         = "canceled"
	CodeInternal         = "internal"
)

// ErrorCode classifies err. It returns "" for a nil error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dock.ErrAlreadyCheckedIn):
		return CodeAlreadyCheckedIn
	case errors.Is(err, dock.ErrDockUnavailable):
		return CodeDockUnavailable
	case errors.Is(err, dock.ErrNotOccupant):
		return CodeNotOccupant
	case errors.Is(err, store.ErrConflict):
		return CodeStaleState
	case errors.Is(err, store.ErrNotFound), errors.Is(err, dock.ErrDockNotFound):
		return CodeNotFound
	case errors.Is(err, review.ErrInvalidInput), errors.Is(err, dock.ErrMissingUser):
		return CodeInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternal
	}
}

// rejected reports whether the dock model refused the request on its own,
// before anything was handed to the store.
func rejected(err error) bool {
	return errors.Is(err, dock.ErrAlreadyCheckedIn) ||
		errors.Is(err, dock.ErrDockUnavailable) ||
		errors.Is(err, dock.ErrNotOccupant) ||
		errors.Is(err, dock.ErrDockNotFound) ||
		errors.Is(err, dock.ErrMissingUser)
}
