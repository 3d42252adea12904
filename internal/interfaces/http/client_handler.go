package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/pkg/logger"
)

// ClientHandler maneja las peticiones HTTP para el recurso Client.
type ClientHandler struct {
	uc  *usecase.ClientUseCase
	log *logger.Logger
}

// NewClientHandler construye el handler inyectando el caso de uso.
func NewClientHandler(uc *usecase.ClientUseCase, log *logger.Logger) *ClientHandler {
	return &ClientHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar clientes visibles para el usuario
// @Tags         clients
// @Produce      json
// @Success      200  {object}  dto.ClientsResponse
// @Router       /api/clients [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ClientsResponse{Clients: out})
}

// Create godoc
// @Summary      Crear cliente
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ClientRequest  true  "Nombre y RNC/cédula"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.ClientRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar cliente
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "ID del cliente"
// @Param        body  body  dto.ClientRequest  true  "Nombre y RNC/cédula"
// @Success      200   {object}  dto.ClientResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [patch]
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.ClientRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Update(c.UserContext(), actorFrom(c), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar cliente
// @Description  Con deleteInvoices=true elimina también sus facturas (soft delete).
// @Tags         clients
// @Produce      json
// @Param        id              path   int   true   "ID del cliente"
// @Param        deleteInvoices  query  bool  false  "Eliminar facturas asociadas"
// @Success      200  {object}  dto.DeleteClientResponse
// @Failure      409  {object}  dto.ClientHasInvoicesResponse
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Delete(c.UserContext(), actorFrom(c), id, c.QueryBool("deleteInvoices", false))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
