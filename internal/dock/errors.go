package dock

import "errors"

var (
	// ErrAlreadyCheckedIn is returned when the user already occupies a dock at the station.
	ErrAlreadyCheckedIn = errors.New("already checked in")
	// ErrDockUnavailable is returned when the target dock is in use.
	ErrDockUnavailable = errors.New("dock unavailable")
	// ErrNotOccupant is returned when someone other than the occupant checks out.
	ErrNotOccupant = errors.New("not the dock occupant")
	// ErrDockNotFound is returned for a dock id the station does not have.
	ErrDockNotFound = errors.New("dock not found")
	// ErrMissingUser is returned when no user id accompanies a transition.
	ErrMissingUser = errors.New("user id is required")
)
