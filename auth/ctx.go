package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// LocalsUserKey is where the middleware stores the validated user
const LocalsUserKey = "auth_user"

// LocalsClaimsKey is where the middleware stores the token claims
const LocalsClaimsKey = "auth_claims"

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// StoreValidation publishes the validated session on the fiber context
func StoreValidation(c *fiber.Ctx, v *Validation) {
	if v == nil {
		return
	}
	c.Locals(LocalsUserKey, v.User)
	c.Locals(LocalsClaimsKey, v.Claims)
}

// CurrentUser returns the session user set by the middleware. Handlers behind
// the guard can rely on it; elsewhere it fails with the missing token error.
func CurrentUser(c *fiber.Ctx) (*User, error) {
	user, ok := c.Locals(LocalsUserKey).(*User)
	if !ok || user == nil {
		return nil, ErrTokenMissing
	}
	return user, nil
}

// CurrentClaims returns the token claims set by the middleware
func CurrentClaims(c *fiber.Ctx) (AuthClaims, bool) {
	claims, ok := c.Locals(LocalsClaimsKey).(AuthClaims)
	return claims, ok
}
