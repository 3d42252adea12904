package dto

// ValidateRNCRequest body para POST /api/rnc/validate.
type ValidateRNCRequest struct {
	Input string `json:"input"`
}
