package dto

import "github.com/shopspring/decimal"

// StatsQuery parámetros de GET /api/reports/stats.
type StatsQuery struct {
	Period   string `query:"period" validate:"omitempty,oneof=month quarter year"`
	ClientID int64  `query:"client_id" validate:"min=0"`
}

// ClientTotal total agregado por cliente.
type ClientTotal struct {
	Name   string          `json:"name"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthTotal total agregado por mes.
type MonthTotal struct {
	Month  string          `json:"month"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ReportStats estadísticas del período.
type ReportStats struct {
	TotalInvoices    int             `json:"total_invoices"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AverageAmount    decimal.Decimal `json:"average_amount"`
	ThisPeriod       int             `json:"this_period"`
	LastPeriod       int             `json:"last_period"`
	Growth           float64         `json:"growth"`
	TopClients       []ClientTotal   `json:"top_clients"`
	MonthlyBreakdown []MonthTotal    `json:"monthly_breakdown"`
}

// StatsResponse respuesta de GET /api/reports/stats.
type StatsResponse struct {
	Stats ReportStats `json:"stats"`
}

// Columns606 encabezados del formato 606 en el orden de exportación.
var Columns606 = []string{
	"RNC", "FECHA", "NOMBRE COMPAÑÍA", "NO. COMPROBANTE FISCAL", "MATERIALES",
	"MONTO EN SERVICIO EXENTO", "MONTO EN BIEN EXENTO", "TOTAL DE MONTOS EXENTO",
	"MONTO EN SERVICIO GRAVADO", "MONTO EN BIEN GRAVADO", "TOTAL DE MONTOS GRAVADO",
	"ITBIS SERVICIOS", "ITBIS COMPRAS BIENES", "TOTAL FACTURADO EN ITBIS",
	"ITBIS SERVICIOS RETENIDO", "RETENCION 30% ITBIS", "RETENCION 10%", "RETENCION 2%",
	"PROPINA", "TOTAL FACTURADO", "TOTAL A COBRAR",
}

// Row606 fila del formato 606 con los totales ya derivados.
type Row606 struct {
	RNC                    string
	Fecha                  string // YYYY-MM-DD
	NombreCompania         string
	NCF                    string
	Materiales             string
	MontoServicioExento    decimal.Decimal
	MontoBienExento        decimal.Decimal
	TotalMontosExento      decimal.Decimal
	MontoServicioGravado   decimal.Decimal
	MontoBienGravado       decimal.Decimal
	TotalMontosGravado     decimal.Decimal
	ITBISServicios         decimal.Decimal
	ITBISBienes            decimal.Decimal
	TotalFacturadoITBIS    decimal.Decimal
	ITBISServiciosRetenido decimal.Decimal
	Retencion30ITBIS       decimal.Decimal
	Retencion10            decimal.Decimal
	Retencion2             decimal.Decimal
	Propina                decimal.Decimal
	TotalFacturado         decimal.Decimal
	TotalACobrar           decimal.Decimal
}

// Amounts devuelve los montos de la fila en el orden de Columns606.
func (r Row606) Amounts() []decimal.Decimal {
	return []decimal.Decimal{
		r.MontoServicioExento, r.MontoBienExento, r.TotalMontosExento,
		r.MontoServicioGravado, r.MontoBienGravado, r.TotalMontosGravado,
		r.ITBISServicios, r.ITBISBienes, r.TotalFacturadoITBIS,
		r.ITBISServiciosRetenido, r.Retencion30ITBIS, r.Retencion10, r.Retencion2,
		r.Propina, r.TotalFacturado, r.TotalACobrar,
	}
}

// Report606 reporte 606 listo para exportar.
type Report606 struct {
	FirmName   string
	ClientName string
	Period     string // p. ej. "Octubre 2026"
	Filename   string // sin extensión
	Rows       []Row606
	Totals     Row606 // solo montos
}
