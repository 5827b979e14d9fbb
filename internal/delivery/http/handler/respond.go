package handler

import (
	"errors"

	"medvault-api/internal/delivery/http/dto"
	"medvault-api/internal/domain/apperror"

	"github.com/gofiber/fiber/v2"
)

// writeError maps the error taxonomy onto HTTP statuses. Every failure
// is a structured per-request payload, nothing is fatal.
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	kind := ""

	var ae *apperror.Error
	if errors.As(err, &ae) {
		kind = string(ae.Kind)
		switch ae.Kind {
		case apperror.KindNotFound:
			status = fiber.StatusNotFound
		case apperror.KindValidation:
			status = fiber.StatusBadRequest
		case apperror.KindParse:
			status = fiber.StatusUnprocessableEntity
		case apperror.KindUpstream:
			status = fiber.StatusBadGateway
		}
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error(), Kind: kind})
}
