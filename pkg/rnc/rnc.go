// Package rnc valida y da formato a los identificadores fiscales de República
// Dominicana: RNC (9 dígitos, personas jurídicas) y Cédula (11 dígitos, personas
// físicas). Todas las funciones son puras y seguras para uso concurrente.
package rnc

import (
	"errors"
	"fmt"
)

// Kind tipo de identificador según la cantidad de dígitos.
type Kind string

const (
	KindRNC     Kind = "RNC"
	KindCedula  Kind = "CEDULA"
	KindInvalid Kind = "INVALID"
)

// Code categoría del error de validación; vacío si el identificador es válido.
type Code string

const (
	CodeEmptyInput  Code = "EMPTY_INPUT"
	CodeInvalidLen  Code = "INVALID_LENGTH"
	CodePlaceholder Code = "PLACEHOLDER_PATTERN"
)

const (
	rncLength    = 9
	cedulaLength = 11
)

var (
	ErrEmptyInput    = errors.New("rnc: entrada vacía")
	ErrInvalidLength = errors.New("rnc: cantidad de dígitos inválida")
	ErrPlaceholder   = errors.New("rnc: número de relleno")
)

// TaxID resultado inmutable de Validate.
// Compact es la forma que se persiste y se usa como clave de búsqueda del cliente.
type TaxID struct {
	Raw          string `json:"raw"`
	Kind         Kind   `json:"kind"`
	Compact      string `json:"compact"`
	Formatted    string `json:"formatted"`
	Valid        bool   `json:"valid"`
	Code         Code   `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
	CheckDigitOK bool   `json:"check_digit_ok"`
}

// Err devuelve nil si el identificador es válido; si no, un error que envuelve
// ErrEmptyInput, ErrInvalidLength o ErrPlaceholder.
func (t TaxID) Err() error {
	if t.Valid {
		return nil
	}
	var sentinel error
	switch t.Code {
	case CodeEmptyInput:
		sentinel = ErrEmptyInput
	case CodeInvalidLen:
		sentinel = ErrInvalidLength
	default:
		sentinel = ErrPlaceholder
	}
	return fmt.Errorf("%w: %s", sentinel, t.Error)
}

// Validate limpia la entrada, clasifica el identificador y devuelve sus formas
// compacta y con guiones. Acepta "1-30-12345-4", "130123454", "123-4567890-1",
// espacios, puntos o letras intercaladas (se descartan).
func Validate(input string) TaxID {
	digits := extractDigits(input)
	if digits == "" {
		return TaxID{
			Raw:   input,
			Kind:  KindInvalid,
			Code:  CodeEmptyInput,
			Error: "Por favor indica un RNC o cédula. Ejemplos: 1-30-12345-4 (RNC) o 123-4567890-1 (Cédula)",
		}
	}

	var kind Kind
	switch len(digits) {
	case rncLength:
		kind = KindRNC
	case cedulaLength:
		kind = KindCedula
	default:
		return TaxID{
			Raw:     input,
			Kind:    KindInvalid,
			Compact: digits,
			Code:    CodeInvalidLen,
			Error: fmt.Sprintf("Formato inválido. El RNC debe tener 9 dígitos (ej: 1-30-12345-4) y la cédula 11 dígitos (ej: 123-4567890-1). Recibido: %d dígitos",
				len(digits)),
		}
	}

	if isPlaceholder(digits) {
		return TaxID{
			Raw:     input,
			Kind:    KindInvalid,
			Compact: digits,
			Code:    CodePlaceholder,
			Error:   fmt.Sprintf("El número %s no parece un %s real (todos los dígitos son iguales). Verifica el documento.", digits, label(kind)),
		}
	}

	return TaxID{
		Raw:          input,
		Kind:         kind,
		Compact:      digits,
		Formatted:    FormatCompact(digits),
		Valid:        true,
		CheckDigitOK: checkDigitOK(kind, digits),
	}
}

// FormatCompact agrupa con guiones un identificador ya almacenado: extrae sus
// dígitos y da 9 como X-XX-XXXXX-X y 11 como XXX-XXXXXXX-X. Con otra cantidad
// devuelve la entrada sin cambios; no valida dígito verificador ni relleno.
func FormatCompact(compact string) string {
	d := extractDigits(compact)
	switch len(d) {
	case rncLength:
		return d[:1] + "-" + d[1:3] + "-" + d[3:8] + "-" + d[8:]
	case cedulaLength:
		return d[:3] + "-" + d[3:10] + "-" + d[10:]
	}
	return compact
}

// IsValid atajo booleano de Validate.
func IsValid(input string) bool { return Validate(input).Valid }

// CompactOf devuelve la forma compacta y true si la entrada es válida.
func CompactOf(input string) (string, bool) {
	t := Validate(input)
	return t.Compact, t.Valid
}

// FormattedOf devuelve la forma con guiones y true si la entrada es válida.
func FormattedOf(input string) (string, bool) {
	t := Validate(input)
	return t.Formatted, t.Valid
}

// extractDigits conserva solo los bytes ASCII '0'..'9'.
func extractDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}

func isPlaceholder(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func label(k Kind) string {
	if k == KindCedula {
		return "número de cédula"
	}
	return "RNC"
}
