package analytics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarket/edumarket/analytics"
	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/catalog"
)

func dashboardApp(t *testing.T, user *auth.User, svc *analytics.Service) *fiber.App {
	t.Helper()

	app := fiber.New()

	// stand-in for the session guard
	protect := func(c *fiber.Ctx) error {
		auth.StoreValidation(c, &auth.Validation{User: user})
		return c.Next()
	}

	controller := analytics.NewController(analytics.WithService(svc))
	analytics.RegisterRoutes(app, controller, protect)

	return app
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestDashboardEndpoint(t *testing.T) {
	student := &auth.User{ID: uuid.New(), FullName: "Student Person", Role: auth.RoleStudent}
	tutor := &auth.User{ID: uuid.New(), FullName: "Tutor Person", Role: auth.RoleTutor}

	svc := analytics.NewService(
		stubCourses{
			enrolled: map[uuid.UUID]int{student.ID: 2},
			byMentor: map[uuid.UUID][]*catalog.Course{
				tutor.ID: {courseWith(student.ID)},
			},
		},
		stubRequests{pending: map[uuid.UUID]int{tutor.ID: 1}},
	)

	t.Run("student dashboard", func(t *testing.T) {
		app := dashboardApp(t, student, svc)

		status, body := getJSON(t, app, "/api/analytics/"+student.ID.String())
		require.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(2), data["enrolled_courses"])
		assert.Equal(t, float64(3), data["resume_credits"])
	})

	t.Run("tutor dashboard", func(t *testing.T) {
		app := dashboardApp(t, tutor, svc)

		status, body := getJSON(t, app, "/api/analytics/"+tutor.ID.String())
		require.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(1), data["total_students"])
		assert.Equal(t, float64(1), data["active_courses"])
		assert.Equal(t, float64(1), data["pending_requests"])
	})

	t.Run("role override", func(t *testing.T) {
		app := dashboardApp(t, tutor, svc)

		status, body := getJSON(t, app, "/api/analytics/"+tutor.ID.String()+"?role=student")
		require.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, data, "resume_credits")
	})

	t.Run("unknown role", func(t *testing.T) {
		app := dashboardApp(t, student, svc)

		status, body := getJSON(t, app, "/api/analytics/"+student.ID.String()+"?role=admin")
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid role", body["message"])
	})

	t.Run("foreign dashboard", func(t *testing.T) {
		app := dashboardApp(t, student, svc)

		status, body := getJSON(t, app, "/api/analytics/"+tutor.ID.String())
		require.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "Cannot read another user's analytics", body["message"])
	})
}
