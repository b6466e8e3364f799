package randoracle

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInitialized is returned by Init when a configuration has
	// already been established for this deployment.
	ErrAlreadyInitialized = errors.New("oracle is already initialized")

	// ErrNotInitialized is returned by operations that need a configuration
	// before one has been established.
	ErrNotInitialized = errors.New("oracle is not initialized")

	// ErrInvalidPubkey means the configured group key does not decode to a
	// usable curve point. Distinct from ErrInvalidSignature so callers can
	// tell a broken configuration apart from a bad submission.
	ErrInvalidPubkey = errors.New("could not load public key into a point in G1")

	// ErrInvalidSignature means the submitted beacon failed verification.
	// Submissions failing this way leave no trace in either ledger.
	ErrInvalidSignature = errors.New("signature verification failed")

	// ErrAlreadySettled rejects bounty contributions to rounds whose beacon
	// has been ingested; such funds could never be claimed.
	ErrAlreadySettled = errors.New("beacon for round already settled")
)

// WrongDenominationError rejects a bounty contribution paid in anything but
// the configured denomination. The contribution is refused entirely; there
// is no partial credit.
type WrongDenominationError struct {
	Expected string
	Got      string
}

func (e WrongDenominationError) Error() string {
	return fmt.Sprintf("wrong bounty denomination %q, expected %q", e.Got, e.Expected)
}
