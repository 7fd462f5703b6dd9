package domain

import "errors"

var (
	// ErrUserExists signals a registration conflict on the unique email.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by user lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole rejects registration with a role outside the closed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// that login failures never reveal which of the two was at fault.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrRefreshTokenMissing means the client supplied no refresh token at all.
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	// ErrRefreshTokenNotFound and ErrRefreshTokenExpired are store-internal;
	// the session service collapses both into ErrInvalidRefreshToken before
	// anything reaches a client, to avoid a token-existence oracle.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")

	// ErrInvalidAccessToken covers every access-token verification failure:
	// missing, malformed, bad signature, expired. Deliberately one kind.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrForbidden means authenticated but lacking the required role.
	ErrForbidden = errors.New("access forbidden")

	// ErrTooManyLoginAttempts throttles repeated failed logins per email.
	ErrTooManyLoginAttempts = errors.New("too many login attempts")

	// ErrUnavailable marks transient storage/infrastructure failures.
	// Callers may retry; credential and token errors never use this kind.
	ErrUnavailable = errors.New("storage unavailable")
)
