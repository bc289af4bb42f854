package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrValidation marks caller mistakes: missing fields, impossible stat lines,
// references to plays that do not exist. Distinct from not-found (unknown
// identifier on a read) and from storage-layer failures, which surface as a
// generic 500 without internals.
var ErrValidation = errors.New("validation failed")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// respondError maps the error taxonomy onto HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
