package analytics

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edumarket/edumarket/auth"
)

// ControllerRoutes holds the mount points
type ControllerRoutes struct {
	Dashboard string
}

type Controller struct {
	Logger       auth.Logger
	Service      *Service
	Routes       *ControllerRoutes
	ErrorHandler func(c *fiber.Ctx, err error) error
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:       auth.DefaultLogger(),
		ErrorHandler: auth.RespondWithError,
		Routes: &ControllerRoutes{
			Dashboard: "/api/analytics/:userId",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in analytics controller...")
	}

	return c
}

func WithService(s *Service) ControllerOption {
	return func(c *Controller) *Controller {
		c.Service = s
		return c
	}
}

func WithControllerLogger(l auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// RegisterRoutes mounts the dashboard endpoint behind the session guard
func RegisterRoutes(app fiber.Router, controller *Controller, protect fiber.Handler) {
	app.Get(controller.Routes.Dashboard, protect, controller.Dashboard)
}

// Dashboard serves the per-role aggregates. Users can only read their
// own dashboard; the role query picks the report shape and defaults to
// the stored role.
func (a *Controller) Dashboard(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if c.Params("userId") != user.ID.String() {
		return c.Status(fiber.StatusForbidden).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Cannot read another user's analytics",
		})
	}

	role := user.Role
	if raw := c.Query("role"); raw != "" {
		parsed, ok := auth.ParseRole(raw)
		if !ok {
			return a.ErrorHandler(c, ErrInvalidRole)
		}
		role = parsed
	}

	report, err := a.Service.Report(c.Context(), user.ID, role)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"role":    role,
		"data":    report,
	})
}
