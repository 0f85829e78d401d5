// Package services implements the multi-step business workflows that sit
// between the HTTP handlers and the repositories: email verification and the
// invitation lifecycle. Single-statement operations (organization CRUD) stay
// in the handlers, matching the rest of the API surface.
package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these to
// HTTP status codes with errors.Is; everything else is treated as an internal
// error.
var (
	// ErrNotFound means a referenced record does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyVerified means the account's email is already confirmed
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrInvalidCode means no pending confirmation matches the submitted code
	ErrInvalidCode = errors.New("invalid confirmation code")
	// ErrCodeExpired means the code matched but its expiry has passed
	ErrCodeExpired = errors.New("confirmation code expired")
	// ErrInvalidToken means a signed token failed signature or expiry checks
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenMismatch means a valid token was presented by the wrong account
	ErrTokenMismatch = errors.New("token does not belong to this account")
	// ErrConflict means a uniqueness constraint would be violated
	ErrConflict = errors.New("conflict")
	// ErrMailDelivery means the mail provider rejected or failed the send
	ErrMailDelivery = errors.New("mail delivery failed")
)
