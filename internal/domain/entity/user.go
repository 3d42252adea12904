package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User usuario del portal; pertenece a una Firm.
// Los usuarios con RoleUser solo ven los clientes asignados (user_clients).
type User struct {
	ID              int64
	FirmID          int64
	Email           string
	PasswordHash    string // bcrypt
	Role            string
	ActiveClientRNC string // RNC compacto del cliente activo; vacío si no hay
	CreatedAt       time.Time
}

// IsAdmin informa si el usuario administra la firma.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
