package utils

import (
	stderrors "errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/location-lookup/internal/pkg/errors"
)

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// SendJSON - успешный ответ без обёртки: схема ответа задаётся DTO
func SendJSON(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func SendError(c *fiber.Ctx, err error) error {
	var verr *errors.ValidationError
	if stderrors.As(err, &verr) {
		appErr := verr.AppError()
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.RetryAfter > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(appErr.RetryAfter.Seconds())))
		}
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	// Unknown error - return 500
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
