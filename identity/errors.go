package identity

import "errors"

var (
	// ErrNotOwner is returned when a caller lacks the owner role
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrNotAuthorizedVerifier is returned when a verification is attempted
	// by an address outside the authorized verifier set
	ErrNotAuthorizedVerifier = errors.New("caller is not an authorized verifier")

	// ErrCannotRevokeOwner is returned when revocation of the owner's
	// verifier authorization is attempted
	ErrCannotRevokeOwner = errors.New("cannot revoke owner")

	// ErrInvalidHash is returned when a registration carries a zero-value commitment
	ErrInvalidHash = errors.New("invalid identity hash")

	// ErrInvalidAddress is returned when a verifier operation targets the zero address
	ErrInvalidAddress = errors.New("invalid address")

	// ErrAlreadyRegistered is returned when the caller already has an active identity
	ErrAlreadyRegistered = errors.New("identity already registered")

	// ErrHashAlreadyUsed is returned when the commitment is already bound to an address
	ErrHashAlreadyUsed = errors.New("identity hash already used")

	// ErrIdentityNotFound is returned when the target has no active identity
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrAlreadyVerified is returned when the target identity has already
	// been verified with a true outcome; a recorded false outcome does not
	// block further attempts
	ErrAlreadyVerified = errors.New("identity already verified")

	// ErrAlreadyAuthorized is returned when the verifier is already in the set
	ErrAlreadyAuthorized = errors.New("verifier already authorized")

	// ErrNotAuthorized is returned when revocation targets a verifier not in the set
	ErrNotAuthorized = errors.New("verifier not authorized")
)
