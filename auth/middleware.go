package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edumarket/edumarket/middleware/jwtware"
)

// middlewareValidator adapts SessionValidator to the middleware's local
// interface and publishes the validated user on the request context, so
// handlers behind the guard get the user without a second lookup.
type middlewareValidator struct {
	v *SessionValidator
}

func (m middlewareValidator) Validate(c *fiber.Ctx, raw string) (jwtware.AuthClaims, error) {
	result, err := m.v.Validate(c.Context(), raw)
	if err != nil {
		return nil, err
	}

	StoreValidation(c, result)

	return result.Claims, nil
}

// MiddlewareValidator wraps the validator for jwtware
func MiddlewareValidator(v *SessionValidator) jwtware.SessionValidator {
	return middlewareValidator{v: v}
}

// ProtectedRoute builds the session guard. Rejections go through the same
// error responder as the rest of the API, so a superseded session and an
// expired token keep their distinct messages.
func ProtectedRoute(v *SessionValidator, cfg Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SessionValidator: MiddlewareValidator(v),
		TokenLookup:      cfg.GetTokenLookup(),
		AuthScheme:       cfg.GetAuthScheme(),
		ContextKey:       cfg.GetContextKey(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return RespondWithError(c, err)
		},
	})
}

// RequireRole layers an exact role check on top of the session guard
func RequireRole(v *SessionValidator, cfg Config, role UserRole) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SessionValidator: MiddlewareValidator(v),
		TokenLookup:      cfg.GetTokenLookup(),
		AuthScheme:       cfg.GetAuthScheme(),
		ContextKey:       cfg.GetContextKey(),
		RequiredRole:     string(role),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return RespondWithError(c, err)
		},
	})
}
