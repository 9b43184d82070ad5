package engine

import (
	"errors"
	"fmt"
)

// Expected rejections. State is left unchanged whenever one is returned.
var (
	ErrNoCatalog          = errors.New("no catalog")
	ErrCollectionComplete = errors.New("collection complete")
	ErrAlreadyUnlocked    = errors.New("facility already unlocked")
	ErrTurnCount          = fmt.Errorf("turn count must be 1-%d", MaxTurnsPerAdvance)

	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInsufficientFunds     = fmt.Errorf("%w: insufficient funds", ErrInsufficientResources)
	ErrInsufficientTech      = fmt.Errorf("%w: insufficient tech", ErrInsufficientResources)
)

// Lookup failures. Surfaced wrapped in an *IntegrityError.
var (
	ErrUnknownCreature = errors.New("unknown creature")
	ErrUnknownFacility = errors.New("unknown facility")
	ErrFacilityLocked  = errors.New("facility not unlocked")
)

// IntegrityError reports a reference to a creature or facility that does not
// exist in the current state. It indicates a caller bug, not a user mistake.
type IntegrityError struct {
	Op     string
	Detail string
	Err    error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: %v (%s)", e.Op, e.Err, e.Detail)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// IsIntegrity reports whether err is or wraps an *IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
