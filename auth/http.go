package auth

import (
	stderrors "errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	TextCode string `json:"text_code,omitempty"`
}

// RespondWithError writes a JSON error response. Rich errors carry their own
// status code; anything else is treated as an unexpected server error and its
// raw message goes out with a 500.
func RespondWithError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if stderrors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Success: false,
			Message: fiberErr.Message,
		})
	}

	richErr := AsRichError(err)

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	return c.Status(status).JSON(ErrorResponse{
		Success:  false,
		Message:  richErr.Message,
		TextCode: richErr.TextCode,
	})
}

// AsRichError normalizes any error into a rich error
func AsRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	return errors.Wrap(err, errors.CategoryInternal, err.Error()).
		WithCode(errors.CodeInternal)
}

// LogRichError logs a rich error with its metadata
func LogRichError(l Logger, prefix string, err error) {
	richErr := AsRichError(err)
	l.Error("%s: %s category=%s details=%s",
		prefix, richErr.Message, richErr.Category, print.MaybePrettyJSON(richErr.Metadata))
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return http.StatusUnauthorized
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
