// Package quality calcula la puntuación de calidad de una factura extraída por
// IA y detecta inconsistencias matemáticas o campos faltantes.
//
// Puntuación base 100:
//
//	flag_dudoso               -30
//	CONF_BIEN_SERVICIO < 0.7  -20
//	totales no cuadran        -25
//	falta RNC                 -10
//	falta NCF                 -10
//	falta fecha                -5
package quality

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/contablebot/portal-api/internal/domain/entity"
)

// Level nivel de calidad derivado de la puntuación.
type Level string

const (
	LevelGood   Level = "good"
	LevelReview Level = "review"
	LevelBad    Level = "bad"
)

const minConfidence = 0.7

// tolerancia de redondeo al comparar totales (RD$1).
var tolerance = decimal.NewFromInt(1)

// Result resultado de Evaluate.
type Result struct {
	IsValid           bool     `json:"is_valid"`
	Score             int      `json:"quality_score"`
	Level             Level    `json:"level"`
	Issues            []string `json:"issues"`
	MathValid         bool     `json:"math_valid"`
	HasRequiredFields bool     `json:"has_required_fields"`
	Confidence        float64  `json:"confidence_score"`
}

// Stats agregado de un lote de facturas.
type Stats struct {
	Total         int `json:"total"`
	Good          int `json:"good"`
	NeedsReview   int `json:"needs_review"`
	Bad           int `json:"bad"`
	FlaggedByAI   int `json:"flagged_by_ai"`
	LowConfidence int `json:"low_confidence"`
	MathErrors    int `json:"math_errors"`
	MissingFields int `json:"missing_fields"`
}

// Evaluate puntúa una factura.
func Evaluate(inv *entity.Invoice) Result {
	issues := []string{}
	score := 100

	confidence := inv.Confidence()

	if inv.FlagDudoso {
		score -= 30
		reason := inv.RazonDuda
		if reason == "" {
			reason = "Marcado como dudoso por IA"
		}
		issues = append(issues, reason)
	}

	if confidence < minConfidence {
		score -= 20
		issues = append(issues, fmt.Sprintf("Baja confianza en clasificación: %d%%", int(math.Round(confidence*100))))
	}

	mathValid := MathConsistent(inv)
	if !mathValid {
		score -= 25
		issues = append(issues, "Los totales no cuadran matemáticamente")
	}

	hasRequired := true
	if inv.RNC == "" {
		score -= 10
		hasRequired = false
		issues = append(issues, "Falta RNC del proveedor")
	}
	if inv.NCF == "" {
		score -= 10
		hasRequired = false
		issues = append(issues, "Falta NCF (Comprobante Fiscal)")
	}
	if inv.Fecha == nil {
		score -= 5
		hasRequired = false
		issues = append(issues, "Falta fecha de factura")
	}

	if score < 0 {
		score = 0
	}

	return Result{
		IsValid:           score >= 70,
		Score:             score,
		Level:             LevelOf(score),
		Issues:            issues,
		MathValid:         mathValid,
		HasRequiredFields: hasRequired,
		Confidence:        confidence,
	}
}

// LevelOf traduce la puntuación a nivel: >= 90 good, >= 70 review, si no bad.
func LevelOf(score int) Level {
	switch {
	case score >= 90:
		return LevelGood
	case score >= 70:
		return LevelReview
	default:
		return LevelBad
	}
}

// MathConsistent verifica, con tolerancia de RD$1:
//
//	total_facturado ≈ exento + gravado + itbis
//	total_a_cobrar  ≈ total_facturado + propina - retenciones
//
// Una suma calculada en cero no se considera error (datos aún sin extraer).
func MathConsistent(inv *entity.Invoice) bool {
	calculated := orZero(inv.TotalMontosExento).
		Add(orZero(inv.TotalMontosGravado)).
		Add(orZero(inv.TotalFacturadoITBIS))
	if calculated.IsPositive() && inv.TotalFacturado.Sub(calculated).Abs().GreaterThan(tolerance) {
		return false
	}

	if inv.TotalACobrar.Valid {
		retenciones := orZero(inv.ITBISServiciosRetenido).
			Add(orZero(inv.Retencion30ITBIS)).
			Add(orZero(inv.Retencion10)).
			Add(orZero(inv.Retencion2))
		propina := inv.Propina
		if !propina.Valid {
			propina = inv.PropinaLegal
		}
		aCobrar := inv.TotalFacturado.Add(orZero(propina)).Sub(retenciones)
		if aCobrar.IsPositive() && inv.TotalACobrar.Decimal.Sub(aCobrar).Abs().GreaterThan(tolerance) {
			return false
		}
	}
	return true
}

// EvaluateAll puntúa un lote y devuelve los resultados por ID y el agregado.
func EvaluateAll(invoices []*entity.Invoice) (map[int64]Result, Stats) {
	results := make(map[int64]Result, len(invoices))
	stats := Stats{Total: len(invoices)}
	for _, inv := range invoices {
		r := Evaluate(inv)
		results[inv.ID] = r
		switch r.Level {
		case LevelGood:
			stats.Good++
		case LevelReview:
			stats.NeedsReview++
		default:
			stats.Bad++
		}
		if inv.FlagDudoso {
			stats.FlaggedByAI++
		}
		if r.Confidence < minConfidence {
			stats.LowConfidence++
		}
		if !r.MathValid {
			stats.MathErrors++
		}
		if !r.HasRequiredFields {
			stats.MissingFields++
		}
	}
	return results, stats
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}
