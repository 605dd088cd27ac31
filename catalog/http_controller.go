package catalog

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/edumarket/edumarket/auth"
)

// ControllerRoutes holds the mount points
type ControllerRoutes struct {
	Create string
	List   string
	Get    string
	Update string
	Enroll string
	Review string
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
			Create: "/api/courses",
			List:   "/api/courses",
			Get:    "/api/courses/:id",
			Update: "/api/courses/:id",
			Enroll: "/api/courses/:id/enroll",
			Review: "/api/courses/:id/review",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in catalog controller...")
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

// RegisterRoutes mounts the catalog endpoints. Reads are public; every
// mutation sits behind the session guard, and course creation additionally
// requires the tutor role.
func RegisterRoutes(app fiber.Router, controller *Controller, protect, tutorOnly fiber.Handler) {
	app.Get(controller.Routes.List, controller.CourseList)
	app.Get(controller.Routes.Get, controller.CourseGet)
	app.Post(controller.Routes.Create, tutorOnly, controller.CourseCreate)
	app.Put(controller.Routes.Update, tutorOnly, controller.CourseUpdate)
	app.Post(controller.Routes.Enroll, protect, controller.CourseEnroll)
	app.Post(controller.Routes.Review, protect, controller.CourseReview)
}

// CourseCreatePayload is the course creation payload
type CourseCreatePayload struct {
	Title       string     `form:"title" json:"title"`
	Description string     `form:"description" json:"description"`
	Category    string     `form:"category" json:"category"`
	Price       float64    `form:"price" json:"price"`
	Thumbnail   string     `form:"thumbnail" json:"thumbnail"`
	Modules     ModuleList `form:"modules" json:"modules"`
}

// Validate will run validation rules
func (r CourseCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Price, validation.Min(0.0)),
	)
}

// CourseCreate creates a course owned by the session user
func (a *Controller) CourseCreate(c *fiber.Ctx) error {
	payload := new(CourseCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("course create parse payload: %v", err)
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

	course := &Course{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Price:       payload.Price,
		Thumbnail:   payload.Thumbnail,
		Modules:     payload.Modules,
		MentorID:    user.ID,
	}

	created, err := a.Service.Create(c.Context(), course)
	if err != nil {
		a.Logger.Error("course create error: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"course":  created,
	})
}

// CourseList lists courses with optional query filters
func (a *Controller) CourseList(c *fiber.Ctx) error {
	filter := ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Mentor:   c.Query("mentor"),
		Enrolled: c.Query("enrolled"),
	}

	records, err := a.Service.List(c.Context(), filter)
	if err != nil {
		a.Logger.Error("course list error: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"courses": records,
	})
}

// CourseGet returns one course with enrolled-student summaries
func (a *Controller) CourseGet(c *fiber.Ctx) error {
	course, err := a.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"course":  course,
	})
}

// CourseUpdatePayload carries the editable course fields
type CourseUpdatePayload struct {
	Title       string     `form:"title" json:"title"`
	Description string     `form:"description" json:"description"`
	Category    string     `form:"category" json:"category"`
	Price       *float64   `form:"price" json:"price"`
	Thumbnail   string     `form:"thumbnail" json:"thumbnail"`
	Modules     ModuleList `form:"modules" json:"modules"`
}

// CourseUpdate merges non-empty payload fields into the stored course. Only
// the owning mentor can edit.
func (a *Controller) CourseUpdate(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	course, err := a.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if course.MentorID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Cannot update another mentor's course",
		})
	}

	payload := new(CourseUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("course update parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if payload.Title != "" {
		course.Title = payload.Title
	}
	if payload.Description != "" {
		course.Description = payload.Description
	}
	if payload.Category != "" {
		course.Category = payload.Category
	}
	if payload.Price != nil {
		course.Price = *payload.Price
	}
	if payload.Thumbnail != "" {
		course.Thumbnail = payload.Thumbnail
	}
	if payload.Modules != nil {
		course.Modules = payload.Modules
	}

	updated, err := a.Service.Update(c.Context(), course)
	if err != nil {
		a.Logger.Error("course update error: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"course":  updated,
	})
}

// CourseEnroll adds the session user to the course roster
func (a *Controller) CourseEnroll(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	course, err := a.Service.Enroll(c.Context(), c.Params("id"), user.ID)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Enrolled successfully",
		"course_id": course.ID,
	})
}

// CourseReviewPayload is the review payload
type CourseReviewPayload struct {
	Rating int    `form:"rating" json:"rating"`
	Review string `form:"review" json:"review"`
}

// Validate will run validation rules
func (r CourseReviewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Review, validation.Length(0, 2000)),
	)
}

// CourseReview records the session user's rating for the course
func (a *Controller) CourseReview(c *fiber.Ctx) error {
	payload := new(CourseReviewPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("course review parse payload: %v", err)
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

	if err := a.Service.Review(c.Context(), c.Params("id"), user.ID, payload.Rating, payload.Review); err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review added",
	})
}
