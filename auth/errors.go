package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Credential failures are indistinguishable on the wire: unknown email and
// wrong password both surface this error.
var ErrMismatchedHashAndPassword = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is returned when a token's subject no longer resolves
// to a user record.
var ErrIdentityNotFound = goerrors.New("User not found", goerrors.CategoryAuth).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMissing is returned when a request carries no token at all
var ErrTokenMissing = goerrors.New("No token provided", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MISSING").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry claim
var ErrTokenExpired = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers every signature or parse failure
var ErrTokenMalformed = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionSuperseded is returned when a well formed, correctly signed token
// is no longer the registered one for its device class: a later login on the
// same class replaced it.
var ErrSessionSuperseded = goerrors.New("Session expired. You have been logged in from another device.", goerrors.CategoryAuth).
	WithTextCode("SESSION_SUPERSEDED").
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidDeviceClass rejects login payloads before any credential check
var ErrInvalidDeviceClass = goerrors.New("Invalid device type. Must be phone or laptop.", goerrors.CategoryValidation).
	WithTextCode("INVALID_DEVICE_CLASS").
	WithCode(goerrors.CodeBadRequest)

// ErrTooManyLoginAttempts throttles repeated credential failures
var ErrTooManyLoginAttempts = goerrors.New("Too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode("TOO_MANY_ATTEMPTS")

// ErrNoEmptyString guards identifier lookups
var ErrNoEmptyString = goerrors.New("identifier cannot be an empty string", goerrors.CategoryBadInput)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
