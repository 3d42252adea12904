package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/pkg/logger"
)

// UserHandler perfil del usuario y administración de usuarios de la firma.
type UserHandler struct {
	uc  *usecase.UserUseCase
	log *logger.Logger
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase, log *logger.Logger) *UserHandler {
	return &UserHandler{uc: uc, log: log}
}

// Me godoc
// @Summary      Perfil del usuario autenticado
// @Tags         me
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Router       /api/me [get]
func (h *UserHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// SwitchClient cambia el cliente activo.
// PATCH /api/me/active-client
func (h *UserHandler) SwitchClient(c *fiber.Ctx) error {
	var in dto.SwitchClientRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.SwitchClient(c.UserContext(), actorFrom(c), in.ClientID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ChangePassword POST /api/me/password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var in dto.ChangePasswordRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.uc.ChangePassword(c.UserContext(), actorFrom(c), in); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OKResponse{OK: true, Message: "Contraseña actualizada correctamente"})
}

// List GET /api/users (admin)
func (h *UserHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.UsersResponse{Users: out})
}

// Create godoc
// @Summary      Crear usuario de la firma
// @Description  Requiere plan Pro o superior; respeta el límite de usuarios del plan.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "Usuario"
// @Success      201  {object}  dto.UserResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete DELETE /api/users/:id (admin)
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.uc.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OKResponse{OK: true, Message: "Usuario eliminado correctamente"})
}

// AssignClients PUT /api/users/:id/clients (admin)
func (h *UserHandler) AssignClients(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.AssignClientsRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.AssignClients(c.UserContext(), actorFrom(c), id, in.ClientIDs)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
