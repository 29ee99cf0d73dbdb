// Package handler holds the pieces shared by all web handlers: the JSON
// response envelope and request validation.
package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform JSON response shape. Data carries the payload
// for successes and a list of ErrorDetail for failures.
type Envelope struct {
	Status int    `json:"status"`
	Type   string `json:"type"`
	Data   any    `json:"data"`
}

// ErrorDetail is one error entry in an error envelope.
type ErrorDetail struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Respond writes a success envelope.
func Respond(c *fiber.Ctx, status int, payloadType string, data any) error {
	return c.Status(status).JSON(Envelope{
		Status: status,
		Type:   payloadType,
		Data:   data,
	})
}

// RespondError writes an error envelope with a single detail entry.
func RespondError(c *fiber.Ctx, status int, code, detail string) error {
	return c.Status(status).JSON(Envelope{
		Status: status,
		Type:   "error",
		Data:   []ErrorDetail{{Code: code, Detail: detail}},
	})
}

var validate = validator.New()

// ParseAndValidate parses the request body into out and validates its
// struct tags. Parse failures and validation failures are both answered
// with a 422 envelope; the returned bool tells the handler whether to
// continue.
func ParseAndValidate(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, RespondError(c, fiber.StatusUnprocessableEntity,
			"malformed_body", "request body could not be parsed")
	}

	if err := validate.Struct(out); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, RespondError(c, fiber.StatusUnprocessableEntity,
				"invalid_body", err.Error())
		}

		details := make([]ErrorDetail, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			details = append(details, ErrorDetail{
				Code:   "invalid_field",
				Detail: fieldError.Field() + " failed on " + fieldError.Tag(),
			})
		}

		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
			Status: fiber.StatusUnprocessableEntity,
			Type:   "error",
			Data:   details,
		})
	}

	return true, nil
}
