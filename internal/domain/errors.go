package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrPlanRequired       = errors.New("el plan actual no incluye esta función")
	ErrQuotaExceeded      = errors.New("límite mensual de facturas alcanzado")
	ErrUserLimitReached   = errors.New("límite de usuarios del plan alcanzado")
	ErrClientHasInvoices  = errors.New("el cliente tiene facturas asociadas")
	ErrNoActiveClient     = errors.New("no hay un cliente activo seleccionado")
)

// UserError error con mensaje para el usuario final; errors.Is compara contra Kind.
type UserError struct {
	Kind    error
	Message string
}

// NewUserError construye un UserError sobre un error sentinela del dominio.
func NewUserError(kind error, message string) *UserError {
	return &UserError{Kind: kind, Message: message}
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Kind }

// InvoicesAttachedError se devuelve al borrar un cliente que aún tiene facturas
// sin pedir su eliminación.
type InvoicesAttachedError struct {
	Count int
}

func (e *InvoicesAttachedError) Error() string {
	return ErrClientHasInvoices.Error()
}

func (e *InvoicesAttachedError) Unwrap() error { return ErrClientHasInvoices }
