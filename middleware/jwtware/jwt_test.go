package jwtware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarket/edumarket/middleware/jwtware"
)

// fakeClaims satisfies jwtware.AuthClaims for middleware tests
type fakeClaims struct {
	subject string
	role    string
}

func (c fakeClaims) Subject() string          { return c.subject }
func (c fakeClaims) UserID() string           { return c.subject }
func (c fakeClaims) Role() string             { return c.role }
func (c fakeClaims) HasRole(role string) bool { return c.role == role }

// fakeValidator records the raw tokens it was handed and answers from a
// token -> claims table.
type fakeValidator struct {
	sessions map[string]fakeClaims
	err      error

	seen []string
}

func (v *fakeValidator) Validate(c *fiber.Ctx, raw string) (jwtware.AuthClaims, error) {
	v.seen = append(v.seen, raw)
	if v.err != nil {
		return nil, v.err
	}
	if claims, ok := v.sessions[raw]; ok {
		return claims, nil
	}
	return nil, errors.New("no session for token")
}

func appWith(cfg jwtware.Config) (*fiber.App, *[]any) {
	app := fiber.New()
	var stored []any
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		key := cfg.ContextKey
		if key == "" {
			key = "user"
		}
		stored = append(stored, c.Locals(key))
		return c.SendString("ok")
	})
	return app, &stored
}

func request(t *testing.T, app *fiber.App, path string, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestMiddlewareSuccess(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{
		"tok-live": {subject: "user-1", role: "student"},
	}}

	app, stored := appWith(jwtware.Config{SessionValidator: validator})

	res := request(t, app, "/protected", map[string]string{
		fiber.HeaderAuthorization: "Bearer tok-live",
	})

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	require.Equal(t, []string{"tok-live"}, validator.seen)

	require.Len(t, *stored, 1)
	claims, ok := (*stored)[0].(jwtware.AuthClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID())
}

func TestMiddlewareRejection(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{}}

	app, stored := appWith(jwtware.Config{SessionValidator: validator})

	res := request(t, app, "/protected", map[string]string{
		fiber.HeaderAuthorization: "Bearer tok-stale",
	})

	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, "Invalid or expired token", body["message"])
	assert.Empty(t, *stored)
}

func TestMiddlewareMissingToken(t *testing.T) {
	// no extractor hit: the validator still runs, with an empty token, so
	// the registry owns the missing-token error message
	validator := &fakeValidator{sessions: map[string]fakeClaims{}}

	app, _ := appWith(jwtware.Config{SessionValidator: validator})

	res := request(t, app, "/protected", nil)

	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	require.Equal(t, []string{""}, validator.seen)
}

func TestMiddlewareFilterSkips(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{}}

	app, _ := appWith(jwtware.Config{
		SessionValidator: validator,
		Filter: func(c *fiber.Ctx) bool {
			return c.Query("public") == "1"
		},
	})

	res := request(t, app, "/protected?public=1", nil)

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Empty(t, validator.seen)
}

func TestMiddlewareRequiredRole(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{
		"tok-student": {subject: "user-1", role: "student"},
		"tok-tutor":   {subject: "user-2", role: "tutor"},
	}}

	var lastErr error
	app, _ := appWith(jwtware.Config{
		SessionValidator: validator,
		RequiredRole:     "tutor",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			lastErr = err
			var ferr *fiber.Error
			if errors.As(err, &ferr) {
				return c.SendStatus(ferr.Code)
			}
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})

	t.Run("matching role passes", func(t *testing.T) {
		res := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer tok-tutor",
		})
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("wrong role forbidden", func(t *testing.T) {
		res := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer tok-student",
		})
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
		assert.Contains(t, lastErr.Error(), "tutor")
	})
}

func TestMiddlewareRoleChecker(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{
		"tok-student": {subject: "user-1", role: "student"},
	}}

	app, _ := appWith(jwtware.Config{
		SessionValidator: validator,
		RequiredRole:     "anything",
		RoleChecker: func(claims jwtware.AuthClaims, role string) bool {
			return claims.Role() == "student"
		},
	})

	res := request(t, app, "/protected", map[string]string{
		fiber.HeaderAuthorization: "Bearer tok-student",
	})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestMiddlewareValidationListeners(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{
		"tok-live": {subject: "user-1", role: "student"},
	}}

	t.Run("listeners run after validation", func(t *testing.T) {
		var heard []string
		app, _ := appWith(jwtware.Config{
			SessionValidator: validator,
			ValidationListeners: []jwtware.ValidationListener{
				nil, // nil entries are skipped
				func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
					heard = append(heard, claims.UserID())
					return nil
				},
			},
		})

		res := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer tok-live",
		})
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.Equal(t, []string{"user-1"}, heard)
	})

	t.Run("listener error rejects the request", func(t *testing.T) {
		app, stored := appWith(jwtware.Config{
			SessionValidator: validator,
			ValidationListeners: []jwtware.ValidationListener{
				func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
					return errors.New("listener said no")
				},
			},
		})

		res := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer tok-live",
		})
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
		assert.Empty(t, *stored)
	})
}

func TestMiddlewareCustomLookup(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{
		"tok-live": {subject: "user-1", role: "student"},
	}}

	app, _ := appWith(jwtware.Config{
		SessionValidator: validator,
		TokenLookup:      "query:auth_token,cookie:jwt",
	})

	t.Run("query", func(t *testing.T) {
		res := request(t, app, "/protected?auth_token=tok-live", nil)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "tok-live"})
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})
}

func TestMiddlewareCustomContextKey(t *testing.T) {
	validator := &fakeValidator{sessions: map[string]fakeClaims{
		"tok-live": {subject: "user-1", role: "student"},
	}}

	app, stored := appWith(jwtware.Config{
		SessionValidator: validator,
		ContextKey:       "session_claims",
	})

	res := request(t, app, "/protected", map[string]string{
		fiber.HeaderAuthorization: "Bearer tok-live",
	})

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	require.Len(t, *stored, 1)
	assert.NotNil(t, (*stored)[0])
}
