package dto

import "time"

// CreateUserRequest body para POST /api/users (solo admin). Los usuarios creados
// siempre tienen rol "user" y al menos un cliente asignado.
type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	ClientIDs []int64 `json:"client_ids" validate:"required,min=1,dive,min=1"`
}

// UserResponse usuario en respuestas (sin hash).
type UserResponse struct {
	ID              int64     `json:"id"`
	FirmID          int64     `json:"firm_id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	ClientIDs       []int64   `json:"client_ids,omitempty"`
	ActiveClientRNC string    `json:"active_client_rnc,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// UsersResponse listado de usuarios.
type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

// AssignClientsRequest body para PUT /api/users/:id/clients.
type AssignClientsRequest struct {
	ClientIDs []int64 `json:"client_ids" validate:"required,min=1,dive,min=1"`
}

// SwitchClientRequest body para PATCH /api/me/active-client.
type SwitchClientRequest struct {
	ClientID int64 `json:"client_id" validate:"required,min=1"`
}

// ChangePasswordRequest body para POST /api/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// PlanSummary plan vigente de la firma.
type PlanSummary struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	MonthlyInvoices int    `json:"monthly_invoices"`
	MaxUsers        int    `json:"max_users"`
}

// MeResponse respuesta de GET /api/me.
type MeResponse struct {
	UserID            int64           `json:"user_id"`
	Email             string          `json:"email"`
	Role              string          `json:"role"`
	FirmID            int64           `json:"firm_id"`
	FirmName          string          `json:"firm_name"`
	UsageCurrentMonth int             `json:"usage_current_month"`
	PlanLimit         int             `json:"plan_limit"`
	IsActive          bool            `json:"is_active"`
	Plan              *PlanSummary    `json:"plan,omitempty"`
	ActiveClient      *ClientResponse `json:"active_client,omitempty"`
}
