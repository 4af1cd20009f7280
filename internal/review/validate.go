package review

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"chargetracker-backend/internal/model"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

// ErrInvalidInput marks a malformed review or query.
var ErrInvalidInput = errors.New("invalid input")

var knownChargerTypes = map[model.ChargerType]bool{
	model.ChargerType1:   true,
	model.ChargerType2:   true,
	model.ChargerType3:   true,
	model.ChargerCCS1:    true,
	model.ChargerCCS2:    true,
	model.ChargerCHAdeMO: true,
	model.ChargerNACS:    true,
}

// Validate rejects reviews that must not be stored. Optional tags may be
// empty, but when present they must be one of the known values.
func Validate(r model.Review) error {
	if r.StationID == "" {
		return fmt.Errorf("%w: station id is required", ErrInvalidInput)
	}
	if r.AuthorID == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidInput)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating %d outside [%d,%d]", ErrInvalidInput, r.Rating, MinRating, MaxRating)
	}
	if utf8.RuneCountInString(r.Comment) > MaxCommentLength {
		return fmt.Errorf("%w: comment longer than %d characters", ErrInvalidInput, MaxCommentLength)
	}
	if r.ChargerTypeUsed != "" && !knownChargerTypes[r.ChargerTypeUsed] {
		return fmt.Errorf("%w: unknown charger type %q", ErrInvalidInput, r.ChargerTypeUsed)
	}
	switch r.WaitTime {
	case "", model.WaitNone, model.WaitUpTo10, model.Wait10To20, model.WaitOver20:
	default:
		return fmt.Errorf("%w: unknown wait time %q", ErrInvalidInput, r.WaitTime)
	}
	switch r.ChargeOutcome {
	case "", model.ChargeSucceeded, model.ChargeFailed:
	default:
		return fmt.Errorf("%w: unknown charge outcome %q", ErrInvalidInput, r.ChargeOutcome)
	}
	return nil
}
