package quality_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/quality"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// facturaCompleta devuelve una factura sin observaciones.
func facturaCompleta() *entity.Invoice {
	fecha := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return &entity.Invoice{
		ID:                  1,
		RNC:                 "130123454",
		NCF:                 "B0100000001",
		Fecha:               &fecha,
		TotalMontosGravado:  nd("1000.00"),
		TotalFacturadoITBIS: nd("180.00"),
		TotalFacturado:      decimal.RequireFromString("1180.00"),
		Status:              entity.InvoiceStatusOK,
	}
}

func TestEvaluate_FacturaCompleta(t *testing.T) {
	r := quality.Evaluate(facturaCompleta())

	assert.Equal(t, 100, r.Score)
	assert.Equal(t, quality.LevelGood, r.Level)
	assert.True(t, r.IsValid)
	assert.True(t, r.MathValid)
	assert.True(t, r.HasRequiredFields)
	assert.Empty(t, r.Issues)
	assert.Equal(t, 1.0, r.Confidence)
}

func TestEvaluate_DudosoYBajaConfianza(t *testing.T) {
	inv := facturaCompleta()
	inv.FlagDudoso = true
	inv.RawAIDump = map[string]any{"CONF_BIEN_SERVICIO": 0.55}

	r := quality.Evaluate(inv)

	assert.Equal(t, 50, r.Score)
	assert.Equal(t, quality.LevelBad, r.Level)
	assert.False(t, r.IsValid)
	require.Len(t, r.Issues, 2)
	assert.Equal(t, "Marcado como dudoso por IA", r.Issues[0])
	assert.Equal(t, "Baja confianza en clasificación: 55%", r.Issues[1])
}

func TestEvaluate_TotalesNoCuadran(t *testing.T) {
	inv := facturaCompleta()
	inv.TotalFacturado = decimal.RequireFromString("1200.00")

	r := quality.Evaluate(inv)

	assert.False(t, r.MathValid)
	assert.Equal(t, 75, r.Score)
	assert.Equal(t, quality.LevelReview, r.Level)
}

func TestEvaluate_ToleranciaDeRedondeo(t *testing.T) {
	inv := facturaCompleta()
	inv.TotalFacturado = decimal.RequireFromString("1180.90")

	assert.True(t, quality.MathConsistent(inv))
}

func TestEvaluate_TotalACobrar(t *testing.T) {
	inv := facturaCompleta()
	inv.PropinaLegal = nd("100.00")
	inv.Retencion2 = nd("20.00")
	inv.TotalACobrar = nd("1260.00")
	assert.True(t, quality.MathConsistent(inv))

	inv.TotalACobrar = nd("1300.00")
	assert.False(t, quality.MathConsistent(inv))
}

func TestEvaluate_CamposFaltantes(t *testing.T) {
	inv := facturaCompleta()
	inv.RNC = ""
	inv.NCF = ""
	inv.Fecha = nil

	r := quality.Evaluate(inv)

	assert.Equal(t, 75, r.Score)
	assert.False(t, r.HasRequiredFields)
	assert.Contains(t, r.Issues, "Falta RNC del proveedor")
	assert.Contains(t, r.Issues, "Falta NCF (Comprobante Fiscal)")
	assert.Contains(t, r.Issues, "Falta fecha de factura")
}

func TestEvaluate_PuntuacionNoNegativa(t *testing.T) {
	inv := &entity.Invoice{
		FlagDudoso:         true,
		RawAIDump:          map[string]any{"CONF_BIEN_SERVICIO": 0.1},
		TotalMontosGravado: nd("10"),
		TotalFacturado:     decimal.RequireFromString("500"),
	}
	r := quality.Evaluate(inv)
	assert.Equal(t, 0, r.Score)
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, quality.LevelGood, quality.LevelOf(90))
	assert.Equal(t, quality.LevelReview, quality.LevelOf(89))
	assert.Equal(t, quality.LevelReview, quality.LevelOf(70))
	assert.Equal(t, quality.LevelBad, quality.LevelOf(69))
}

func TestEvaluateAll(t *testing.T) {
	good := facturaCompleta()
	review := facturaCompleta()
	review.ID = 2
	review.TotalFacturado = decimal.RequireFromString("2000")
	bad := facturaCompleta()
	bad.ID = 3
	bad.FlagDudoso = true
	bad.RNC = ""

	results, stats := quality.EvaluateAll([]*entity.Invoice{good, review, bad})

	require.Len(t, results, 3)
	assert.Equal(t, quality.Stats{Total: 3, Good: 1, NeedsReview: 1, Bad: 1, FlaggedByAI: 1, MathErrors: 1, MissingFields: 1}, stats)
	assert.Equal(t, 60, results[3].Score)
}
