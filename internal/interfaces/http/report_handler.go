package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/pkg/logger"
)

// ReportHandler estadísticas y exportaciones del formato 606.
type ReportHandler struct {
	uc  *usecase.ReportUseCase
	log *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// Stats godoc
// @Summary      Estadísticas de facturas
// @Tags         reports
// @Produce      json
// @Param        period     query  string  false  "month | quarter | year"  default(month)
// @Param        client_id  query  int     false  "ID de cliente"
// @Success      200  {object}  dto.StatsResponse
// @Router       /api/reports/stats [get]
func (h *ReportHandler) Stats(c *fiber.Ctx) error {
	var q dto.StatsQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Stats(c.UserContext(), actorFrom(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StatsResponse{Stats: *out})
}

// Export606CSV GET /api/reports/606.csv
func (h *ReportHandler) Export606CSV(c *fiber.Ctx) error {
	return h.export(c, "text/csv; charset=utf-8", h.uc.Export606CSV)
}

// Export606PDF GET /api/reports/606.pdf
func (h *ReportHandler) Export606PDF(c *fiber.Ctx) error {
	return h.export(c, "application/pdf", h.uc.Export606PDF)
}

type exportFunc func(ctx context.Context, a usecase.Actor, q dto.InvoiceQuery) (string, []byte, error)

func (h *ReportHandler) export(c *fiber.Ctx, contentType string, fn exportFunc) error {
	var q dto.InvoiceQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	name, body, err := fn(c.UserContext(), actorFrom(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(body)
}
