package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/pkg/rnc"
)

// ValidateRNC godoc
// @Summary      Validar RNC o cédula
// @Description  Siempre responde 200; la validez va en el cuerpo.
// @Tags         rnc
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateRNCRequest  true  "Entrada a validar"
// @Success      200   {object}  rnc.TaxID
// @Router       /api/rnc/validate [post]
func ValidateRNC(c *fiber.Ctx) error {
	var in dto.ValidateRNCRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return c.JSON(rnc.Validate(in.Input))
}
