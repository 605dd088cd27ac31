package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Validation is what a successful session check yields
type Validation struct {
	User   *User
	Claims AuthClaims
}

// SessionValidator decides whether a raw bearer token identifies a live
// session. Every guarded request and the explicit validate endpoint run the
// exact same sequence: token signature and expiry, then user lookup, then the
// registry check. Any failure along the way rejects, unknown states reject.
type SessionValidator struct {
	tokens TokenService
	users  Users
	logger Logger
}

// NewSessionValidator builds the validator
func NewSessionValidator(tokens TokenService, users Users) *SessionValidator {
	return &SessionValidator{
		tokens: tokens,
		users:  users,
		logger: defLogger{},
	}
}

func (v *SessionValidator) WithLogger(l Logger) *SessionValidator {
	if l != nil {
		v.logger = l
	}
	return v
}

// Validate runs the full check. Signature and expiry are verified before the
// store is touched: a token that fails cryptographic validation never costs a
// lookup. A well formed token that is absent from the registry was superseded
// by a newer login on its device class and gets the distinct superseded error.
func (v *SessionValidator) Validate(ctx context.Context, raw string) (*Validation, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims, err := v.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	user, err := v.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user during session validation")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if !user.Sessions.Holds(raw) {
		v.logger.Debug("session token superseded for user %s", user.ID)
		return nil, ErrSessionSuperseded
	}

	return &Validation{
		User:   user,
		Claims: claims,
	}, nil
}
