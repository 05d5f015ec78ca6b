package auth

import "errors"

var (
	ErrMissingSecret = errors.New("auth: token signing secret is not set")

	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")

	// ErrInvalidCredential covers both an unknown email and a wrong password.
	ErrInvalidCredential   = errors.New("auth: invalid credential")
	ErrDuplicateCredential = errors.New("auth: duplicate credential")
	ErrRegistrationFailed  = errors.New("auth: registration failed")
	ErrUserNotFound        = errors.New("auth: user not found")
)
