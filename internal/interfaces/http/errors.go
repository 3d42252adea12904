package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/pkg/logger"
)

// errorStatus traduce un error de dominio a estado HTTP y código.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNoActiveClient, fiber.StatusBadRequest, "NO_ACTIVE_CLIENT"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrPlanRequired, fiber.StatusForbidden, "PLAN_REQUIRED"},
	{domain.ErrQuotaExceeded, fiber.StatusForbidden, "QUOTA_EXCEEDED"},
	{domain.ErrUserLimitReached, fiber.StatusForbidden, "USER_LIMIT_REACHED"},
}

// respondError escribe la respuesta de error. Los errores no reconocidos se
// registran y se responden como 500 sin exponer el detalle.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Code: reqErr.code, Message: reqErr.message, Fields: reqErr.fields,
		})
	}

	var attached *domain.InvoicesAttachedError
	if errors.As(err, &attached) {
		return c.Status(fiber.StatusConflict).JSON(dto.ClientHasInvoicesResponse{
			Code:         "CLIENT_HAS_INVOICES",
			Message:      "El cliente tiene facturas asociadas. Elimínalas junto con el cliente o reasígnalas primero.",
			InvoiceCount: attached.Count,
		})
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: userMessage(err, m.target)})
		}
	}

	if log != nil {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

// userMessage usa el mensaje del UserError si lo hay; si no, el del sentinela.
func userMessage(err, sentinel error) string {
	var ue *domain.UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return sentinel.Error()
}

// paramID lee un parámetro de ruta numérico positivo.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, &requestError{code: "INVALID_ID", message: "id inválido"}
	}
	return int64(id), nil
}
