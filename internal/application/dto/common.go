package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldError detalle de validación por campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse error 400 con detalle por campo.
type ValidationErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// PlanRequiredResponse error 403 cuando la función requiere un plan superior.
type PlanRequiredResponse struct {
	Code            string `json:"code"`
	Message         string `json:"message"`
	UpgradeRequired bool   `json:"upgrade_required"`
	RequiredPlan    string `json:"required_plan"`
}

// OKResponse respuesta simple de éxito.
type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
