package chat

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/edumarket/edumarket/auth"
)

// ControllerRoutes holds the mount points
type ControllerRoutes struct {
	Mentors string
	Send    string
	History string
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
			Mentors: "/api/chat/mentors",
			Send:    "/api/chat/send",
			History: "/api/chat/history/:userId",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in chat controller...")
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

// RegisterRoutes mounts the chat endpoints. The mentor directory is public;
// send and history require a session.
func RegisterRoutes(app fiber.Router, controller *Controller, protect fiber.Handler) {
	app.Get(controller.Routes.Mentors, controller.MentorList)
	app.Post(controller.Routes.Send, protect, controller.MessageSend)
	app.Get(controller.Routes.History, protect, controller.ChatHistory)
}

// MentorList serves the mentor directory with optional skill/search filters
func (a *Controller) MentorList(c *fiber.Ctx) error {
	mentors, err := a.Service.Mentors(c.Context(), c.Query("skill"), c.Query("search"))
	if err != nil {
		a.Logger.Error("mentor list error: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"mentors": mentors,
	})
}

// SendPayload is the outgoing message payload
type SendPayload struct {
	ReceiverID string `form:"receiver_id" json:"receiver_id"`
	Content    string `form:"content" json:"content"`
	Type       string `form:"type" json:"type"`
	TechStack  string `form:"tech_stack" json:"tech_stack"`
}

// Validate will run validation rules
func (r SendPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 5000)),
	)
}

// MessageSend sends a direct message or a tech-stack broadcast from the
// session user
func (a *Controller) MessageSend(c *fiber.Ctx) error {
	payload := new(SendPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("message send parse payload: %v", err)
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

	messageType, ok := ParseMessageType(payload.Type)
	if !ok {
		return a.ErrorHandler(c, ErrInvalidMessageType)
	}

	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	message, err := a.Service.Send(c.Context(), user.ID, SendRequest{
		ReceiverID: payload.ReceiverID,
		Content:    payload.Content,
		Type:       messageType,
		TechStack:  payload.TechStack,
	})
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    message,
	})
}

// ChatHistory serves the pairwise conversation or the whole inbox. Users can
// only read their own history.
func (a *Controller) ChatHistory(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if c.Params("userId") != user.ID.String() {
		return c.Status(fiber.StatusForbidden).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Cannot read another user's chat history",
		})
	}

	records, err := a.Service.History(c.Context(), user.ID, c.Query("other_user_id"))
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"messages": records,
	})
}
