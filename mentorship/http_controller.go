package mentorship

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket/auth"
)

// ControllerRoutes holds the mount points
type ControllerRoutes struct {
	Create       string
	MentorList   string
	PendingCount string
	Decide       string
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
			Create:       "/api/requests",
			MentorList:   "/api/requests/mentor/:mentorId",
			PendingCount: "/api/requests/mentor/:mentorId/count",
			Decide:       "/api/requests/:requestId",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in mentorship controller...")
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

// RegisterRoutes mounts the request endpoints, all behind the session guard
func RegisterRoutes(app fiber.Router, controller *Controller, protect fiber.Handler) {
	app.Post(controller.Routes.Create, protect, controller.RequestCreate)
	app.Get(controller.Routes.MentorList, protect, controller.MentorRequests)
	app.Get(controller.Routes.PendingCount, protect, controller.PendingCount)
	app.Put(controller.Routes.Decide, protect, controller.RequestDecide)
}

// RequestCreatePayload is the new-request payload
type RequestCreatePayload struct {
	MentorID string `form:"mentor_id" json:"mentor_id"`
	CourseID string `form:"course_id" json:"course_id"`
	Message  string `form:"message" json:"message"`
}

// Validate will run validation rules
func (r RequestCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MentorID, validation.Required, is.UUIDv4),
		validation.Field(&r.Message, validation.Length(0, 2000)),
	)
}

// RequestCreate opens a request from the session user to a mentor
func (a *Controller) RequestCreate(c *fiber.Ctx) error {
	payload := new(RequestCreatePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("request create parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":    false,
			"message":    "Error validating payload",
			"validation": auth.FormatValidationErrorToMap(err),
		})
	}

	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	mentorID, err := uuid.Parse(payload.MentorID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Invalid mentor id",
		})
	}

	created, err := a.Service.Create(c.Context(), CreateRequestInput{
		StudentID: user.ID,
		MentorID:  mentorID,
		CourseID:  payload.CourseID,
		Message:   payload.Message,
	})
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"request": created,
	})
}

// MentorRequests lists a mentor's requests, optionally filtered by status.
// Mentors can only read their own queue.
func (a *Controller) MentorRequests(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if c.Params("mentorId") != user.ID.String() {
		return c.Status(fiber.StatusForbidden).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Cannot read another mentor's requests",
		})
	}

	records, err := a.Service.ListForMentor(c.Context(), user.ID, c.Query("status"))
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"requests": records,
	})
}

// PendingCount serves the mentor's open request count
func (a *Controller) PendingCount(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if c.Params("mentorId") != user.ID.String() {
		return c.Status(fiber.StatusForbidden).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Cannot read another mentor's requests",
		})
	}

	count, err := a.Service.PendingCount(c.Context(), user.ID)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   count,
	})
}

// RequestDecidePayload carries the accept/reject decision
type RequestDecidePayload struct {
	Status string `form:"status" json:"status"`
}

// RequestDecide moves a request through the state machine. Only the mentor
// the request was addressed to can decide it.
func (a *Controller) RequestDecide(c *fiber.Ctx) error {
	payload := new(RequestDecidePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("request decide parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	target, ok := ParseRequestStatus(payload.Status)
	if !ok || target == StatusPending {
		return a.ErrorHandler(c, ErrInvalidStatus)
	}

	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	decided, err := a.Service.Decide(c.Context(),
		auth.ActorRef{ID: user.ID.String(), Type: "user"},
		c.Params("requestId"),
		target,
	)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"request": decided,
	})
}
