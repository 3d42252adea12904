package rnc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contablebot/portal-api/pkg/rnc"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios concretos
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate_RNCConGuiones(t *testing.T) {
	got := rnc.Validate("1-30-12345-4")

	require.True(t, got.Valid)
	assert.Equal(t, rnc.KindRNC, got.Kind)
	assert.Equal(t, "130123454", got.Compact)
	assert.Equal(t, "1-30-12345-4", got.Formatted)
	assert.Equal(t, "1-30-12345-4", got.Raw)
	assert.Empty(t, got.Error)
	assert.Empty(t, got.Code)
	assert.NoError(t, got.Err())
}

func TestValidate_Cedula(t *testing.T) {
	got := rnc.Validate("123-4567890-1")

	require.True(t, got.Valid)
	assert.Equal(t, rnc.KindCedula, got.Kind)
	assert.Equal(t, "12345678901", got.Compact)
	assert.Equal(t, "123-4567890-1", got.Formatted)
}

func TestValidate_Vacio(t *testing.T) {
	got := rnc.Validate("")

	assert.False(t, got.Valid)
	assert.Equal(t, rnc.KindInvalid, got.Kind)
	assert.Equal(t, rnc.CodeEmptyInput, got.Code)
	assert.Empty(t, got.Compact)
	assert.NotEmpty(t, got.Error)
	assert.True(t, errors.Is(got.Err(), rnc.ErrEmptyInput))
}

func TestValidate_LongitudInvalida(t *testing.T) {
	got := rnc.Validate("12345")

	assert.False(t, got.Valid)
	assert.Equal(t, rnc.KindInvalid, got.Kind)
	assert.Equal(t, rnc.CodeInvalidLen, got.Code)
	assert.Contains(t, got.Error, "9 dígitos")
	assert.Contains(t, got.Error, "11 dígitos")
	assert.Contains(t, got.Error, "Recibido: 5")
	assert.True(t, errors.Is(got.Err(), rnc.ErrInvalidLength))
}

func TestValidate_Relleno(t *testing.T) {
	got := rnc.Validate("000000000")

	assert.False(t, got.Valid)
	assert.Equal(t, rnc.CodePlaceholder, got.Code)
	assert.Empty(t, got.Formatted)
	assert.True(t, errors.Is(got.Err(), rnc.ErrPlaceholder))
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "1-30-12345-4", rnc.FormatCompact("130123454"))
	assert.Equal(t, "123-4567890-1", rnc.FormatCompact("12345678901"))
	assert.Equal(t, "abc", rnc.FormatCompact("abc"))
	assert.Equal(t, "", rnc.FormatCompact(""))
	assert.Equal(t, "1234", rnc.FormatCompact("1234"))
	// 8 dígitos más una letra: cantidad inválida, se devuelve tal cual.
	assert.Equal(t, "13012345a", rnc.FormatCompact("13012345a"))
}

func TestFormatCompact_ValoresHeredadosConSeparadores(t *testing.T) {
	assert.Equal(t, "1-30-12345-4", rnc.FormatCompact("130 123 454"))
	assert.Equal(t, "1-30-12345-4", rnc.FormatCompact("130-123454"))
	assert.Equal(t, "123-4567890-1", rnc.FormatCompact("123.4567890.1"))
	assert.Equal(t, "12-34", rnc.FormatCompact("12-34"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate_SoloSeparadoresEsVacio(t *testing.T) {
	for _, in := range []string{" ", "---", " . - ", "abc", "​", "R", "N/A"} {
		got := rnc.Validate(in)
		assert.False(t, got.Valid, in)
		assert.Equal(t, rnc.CodeEmptyInput, got.Code, in)
	}
}

func TestValidate_LongitudesFueraDeRango(t *testing.T) {
	digits := "98765432109876"
	for n := 1; n <= len(digits); n++ {
		if n == 9 || n == 11 {
			continue
		}
		got := rnc.Validate(digits[:n])
		assert.False(t, got.Valid, "n=%d", n)
		assert.Equal(t, rnc.CodeInvalidLen, got.Code, "n=%d", n)
	}
}

func TestValidate_DigitosRepetidos(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		for _, n := range []int{9, 11} {
			in := make([]rune, n)
			for i := range in {
				in[i] = d
			}
			got := rnc.Validate(string(in))
			assert.False(t, got.Valid, string(in))
			assert.Equal(t, rnc.CodePlaceholder, got.Code, string(in))
		}
	}
}

func TestValidate_FormatoIdempotente(t *testing.T) {
	for _, in := range []string{"130123454", "1 30 12345 4", "12345678901", "001.1391820.5", "RNC: 1-01-00174-7"} {
		got := rnc.Validate(in)
		require.True(t, got.Valid, in)
		assert.Equal(t, got.Formatted, rnc.FormatCompact(got.Compact), in)
		again := rnc.Validate(got.Formatted)
		assert.Equal(t, got.Formatted, again.Formatted, in)
		assert.Equal(t, got.Compact, again.Compact, in)
	}
}

func TestValidate_IndiferenteAlFormato(t *testing.T) {
	a := rnc.Validate("1-30-12345-4")
	b := rnc.Validate("130123454")
	c := rnc.Validate("  1.30.12345.4 R ")
	assert.Equal(t, a.Compact, b.Compact)
	assert.Equal(t, a.Compact, c.Compact)
}

func TestValidate_LetrasIntercaladasSeDescartan(t *testing.T) {
	got := rnc.Validate("a1b3c0d1e2f3g4h5i4")
	require.True(t, got.Valid)
	assert.Equal(t, "130123454", got.Compact)
}

func TestValidate_SoloDigitosASCII(t *testing.T) {
	got := rnc.Validate("１３０１２３４５４")
	assert.False(t, got.Valid)
	assert.Equal(t, rnc.CodeEmptyInput, got.Code)

	tests := []struct {
		in   string
		code rnc.Code
	}{
		{"1301234½", rnc.CodeInvalidLen},
		{"13012345⁴", rnc.CodeInvalidLen},
		{"①②③④⑤⑥⑦⑧⑨", rnc.CodeEmptyInput},
	}
	for _, tt := range tests {
		got := rnc.Validate(tt.in)
		assert.False(t, got.Valid, tt.in)
		assert.Equal(t, tt.code, got.Code, tt.in)
	}
}

func TestValidate_Determinista(t *testing.T) {
	for _, in := range []string{"", "12345", "000000000", "1-30-12345-4", "123-4567890-1"} {
		assert.Equal(t, rnc.Validate(in), rnc.Validate(in), in)
	}
}

func TestValidate_DigitoVerificadorInformativo(t *testing.T) {
	assert.True(t, rnc.Validate("130123454").CheckDigitOK)
	assert.True(t, rnc.Validate("101001747").CheckDigitOK)

	bad := rnc.Validate("130123455")
	assert.True(t, bad.Valid, "el dígito verificador no invalida el RNC")
	assert.False(t, bad.CheckDigitOK)

	assert.True(t, rnc.Validate("001-1391820-5").CheckDigitOK)
	assert.False(t, rnc.Validate("123-4567890-1").CheckDigitOK)
}

func TestHelpers(t *testing.T) {
	assert.True(t, rnc.IsValid("1-30-12345-4"))
	assert.False(t, rnc.IsValid("1-30"))

	compact, ok := rnc.CompactOf("123-4567890-1")
	assert.True(t, ok)
	assert.Equal(t, "12345678901", compact)

	formatted, ok := rnc.FormattedOf("130123454")
	assert.True(t, ok)
	assert.Equal(t, "1-30-12345-4", formatted)

	_, ok = rnc.FormattedOf("111111111")
	assert.False(t, ok)
}
