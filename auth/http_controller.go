package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/nyaruka/phonenumbers"
)

// AuthControllerRoutes holds the mount points
type AuthControllerRoutes struct {
	Login           string
	Logout          string
	Register        string
	ValidateSession string
	Profile         string
}

type AuthController struct {
	Debug bool
	// UseHashid derives deterministic user IDs from the signup email
	UseHashid    bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       Authenticator
	Validator    *SessionValidator
	Activity     ActivitySink
	Routes       *AuthControllerRoutes
	ErrorHandler func(c *fiber.Ctx, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		UseHashid:    true,
		Logger:       defLogger{},
		ErrorHandler: RespondWithError,
		Routes: &AuthControllerRoutes{
			Login:           "/api/auth/login",
			Logout:          "/api/auth/logout",
			Register:        "/api/auth/register",
			ValidateSession: "/api/auth/validate-session",
			Profile:         "/api/users/profile/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Validator == nil {
		panic("Missing SessionValidator in auth controller...")
	}

	return c
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithSessionValidator(v *SessionValidator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Validator = v
		return c
	}
}

func WithHashidUserIDs(enabled bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.UseHashid = enabled
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Activity = normalizeActivitySink(sink)
		return c
	}
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// RegisterAuthRoutes mounts the auth endpoints. protect guards routes that
// require a live session; pass the jwtware handler from the app wiring.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController, protect fiber.Handler) {
	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.ValidateSession, controller.ValidateSession)
	app.Post(controller.Routes.Logout, protect, controller.LogOut)
	app.Put(controller.Routes.Profile, protect, controller.ProfileUpdate)
}

// LoginRequest payload
type LoginRequest struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	DeviceType string `form:"device_type" json:"device_type"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginPost handles the login flow. The device class gate runs first: an
// unknown class is rejected before credentials are even looked at.
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	device, ok := ParseDeviceClass(payload.DeviceType)
	if !ok {
		return a.ErrorHandler(c, ErrInvalidDeviceClass)
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(c.Context(), payload.Email, payload.Password, device)
	if err != nil {
		a.Logger.Error("login error: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"token":    result.Token,
		"user":     result.User.Summary(),
		"sessions": result.Sessions,
	})
}

// RegistrationCreatePayload is the signup payload
type RegistrationCreatePayload struct {
	FullName        string    `form:"full_name" json:"full_name"`
	Email           string    `form:"email" json:"email"`
	Mobile          string    `form:"mobile" json:"mobile"`
	Gender          string    `form:"gender" json:"gender"`
	Avatar          string    `form:"avatar" json:"avatar"`
	Role            string    `form:"role" json:"role"`
	Interests       Interests `form:"interests" json:"interests"`
	Password        string    `form:"password" json:"password"`
	ConfirmPassword string    `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Mobile, validation.By(ValidateMobileNumber)),
		validation.Field(&r.Role, validation.Required, validation.In(string(RoleStudent), string(RoleTutor))),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// RegistrationCreate creates a user account. Registration hands back the
// account summary only: tokens come from login, never from signup.
func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var created *User
	req := RegisterUserMessage{
		FullName:  payload.FullName,
		Email:     payload.Email,
		Mobile:    payload.Mobile,
		Gender:    payload.Gender,
		Avatar:    payload.Avatar,
		Role:      payload.Role,
		Password:  payload.Password,
		Interests: payload.Interests,
		UseHashid: a.UseHashid,
		OnResponse: func(u *User) {
			created = u
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(c.Context(), req); err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.ErrorHandler(c, err)
	}

	sink := normalizeActivitySink(a.Activity)
	if err := sink.Record(c.Context(), ActivityEvent{
		EventType:  ActivityEventRegistration,
		Actor:      ActorRef{ID: created.ID.String(), Type: "user"},
		UserID:     created.ID.String(),
		OccurredAt: time.Now(),
		Metadata:   map[string]any{"role": payload.Role},
	}); err != nil {
		a.Logger.Warn("activity sink record error: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    created.Summary(),
	})
}

// ValidateSession runs the same checks the middleware runs and reports the
// outcome as a document instead of a rejection. Invalid never leaks why
// beyond the user facing message.
func (a *AuthController) ValidateSession(c *fiber.Ctx) error {
	raw := TokenFromRequest(c)

	result, err := a.Validator.Validate(c.Context(), raw)
	if err != nil {
		richErr := AsRichError(err)
		if richErr.Code >= fiber.StatusInternalServerError || richErr.Code == 0 {
			return a.ErrorHandler(c, err)
		}

		return c.Status(richErr.Code).JSON(fiber.Map{
			"valid":   false,
			"message": richErr.Message,
		})
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"user":  result.User.Summary(),
	})
}

// LogoutRequest payload
type LogoutRequest struct {
	DeviceType string `form:"device_type" json:"device_type"`
}

// LogOut revokes the session for the device class named in the payload
func (a *AuthController) LogOut(c *fiber.Ctx) error {
	payload := new(LogoutRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("logout parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	device, ok := ParseDeviceClass(payload.DeviceType)
	if !ok {
		return a.ErrorHandler(c, ErrInvalidDeviceClass)
	}

	user, err := CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if err := a.Auther.Logout(c.Context(), user.ID.String(), device); err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

// ProfileUpdatePayload carries the editable profile fields
type ProfileUpdatePayload struct {
	FullName  string    `form:"full_name" json:"full_name"`
	Mobile    string    `form:"mobile" json:"mobile"`
	Gender    string    `form:"gender" json:"gender"`
	Avatar    string    `form:"avatar" json:"avatar"`
	Interests Interests `form:"interests" json:"interests"`
	Password  string    `form:"password" json:"password"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(1, 200)),
		validation.Field(&r.Mobile, validation.By(ValidateMobileNumber)),
		validation.Field(&r.Password, validation.Length(8, 100)),
	)
}

// ProfileUpdate edits the caller's own profile. The path id has to match the
// session user; there is no admin override.
func (a *AuthController) ProfileUpdate(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if c.Params("id") != user.ID.String() {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Success: false,
			Message: "Cannot update another user's profile",
		})
	}

	payload := new(ProfileUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("profile update parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if payload.FullName != "" {
		user.FullName = payload.FullName
	}
	if payload.Mobile != "" {
		user.Mobile = payload.Mobile
	}
	if payload.Gender != "" {
		user.Gender = payload.Gender
	}
	if payload.Avatar != "" {
		user.Avatar = payload.Avatar
	}
	if payload.Interests != nil {
		user.Interests = NormalizeInterests(payload.Interests)
	}
	if payload.Password != "" {
		hash, err := HashPassword(payload.Password)
		if err != nil {
			a.Logger.Error("profile update hash password: %v", err)
			return a.ErrorHandler(c, err)
		}
		user.PasswordHash = hash
	}

	updated, err := a.Repo.Users().Update(c.Context(), user)
	if err != nil {
		a.Logger.Error("profile update error: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    updated,
	})
}

// TokenFromRequest pulls the bearer token from the Authorization header,
// falling back to a token field in the JSON body.
func TokenFromRequest(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(header)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err == nil {
		return strings.TrimSpace(body.Token)
	}

	return ""
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidateMobileNumber accepts E.164 formatted numbers. Empty is fine, the
// field is optional.
func ValidateMobileNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return errors.New("must be a valid mobile number with country code")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid mobile number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
