package application

import "errors"

// Sentinel errors surfaced to the HTTP layer. Lookup and credential
// failures are deliberately generic so responses cannot be used to
// enumerate accounts.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNotVerified           = errors.New("email not verified")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrDeliveryFailed        = errors.New("email could not be sent")
	ErrNotFound              = errors.New("account not found")
)
