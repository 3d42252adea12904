package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/domain/plan"
	"github.com/contablebot/portal-api/pkg/logger"
)

// planChecker es el contrato mínimo que necesita el middleware para verificar el plan.
// Lo implementa *usecase.PlanService.
type planChecker interface {
	HasPlan(ctx context.Context, firmID int64, required plan.Key) (bool, error)
}

// RequirePlan devuelve un middleware Fiber que verifica que la firma del token tenga
// al menos el plan indicado. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 403 PLAN_REQUIRED → plan inferior o sin plan, con el plan necesario.
//   - 503 Service Unavailable → fallo al consultar la firma o la caché.
func RequirePlan(required plan.Key, checker planChecker, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	name := string(required)
	if p, ok := plan.ByKey(required); ok {
		name = p.Name
	}
	return func(c *fiber.Ctx) error {
		firmID := GetFirmID(c)
		if firmID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "firm_id no encontrado en el token",
			})
		}

		ok, err := checker.HasPlan(c.UserContext(), firmID, required)
		if err != nil {
			log.Error().Err(err).Int64("firm_id", firmID).Str("plan", string(required)).Msg("verificación de plan falló")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "PLAN_CHECK_FAILED",
				Message: "no se pudo verificar el plan, intente más tarde",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.PlanRequiredResponse{
				Code:            "PLAN_REQUIRED",
				Message:         "Esta función requiere el plan " + name + " o superior",
				UpgradeRequired: true,
				RequiredPlan:    string(required),
			})
		}
		return c.Next()
	}
}
