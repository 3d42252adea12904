package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de procesamiento de una factura.
const (
	InvoiceStatusPending    = "pending"
	InvoiceStatusProcessing = "processing"
	InvoiceStatusOK         = "OK"
	InvoiceStatusReview     = "REVIEW"
	InvoiceStatusError      = "ERROR"
)

// Invoice factura de compra extraída por el servicio externo de OCR/IA.
// Los montos opcionales usan NullDecimal: el formato 606 deriva los totales
// ausentes a partir de sus componentes.
type Invoice struct {
	ID             int64
	FirmID         int64
	UserID         *int64
	ClientID       *int64
	ClientName     string
	Fecha          *time.Time
	RNC            string
	NCF            string
	NombreCompania string
	Materiales     string

	MontoServicioExento    decimal.NullDecimal
	MontoBienExento        decimal.NullDecimal
	TotalMontosExento      decimal.NullDecimal
	MontoServicioGravado   decimal.NullDecimal
	MontoBienGravado       decimal.NullDecimal
	TotalMontosGravado     decimal.NullDecimal
	ITBISServicios         decimal.NullDecimal
	ITBISBienes            decimal.NullDecimal
	TotalFacturadoITBIS    decimal.NullDecimal
	ITBISServiciosRetenido decimal.NullDecimal
	Retencion30ITBIS       decimal.NullDecimal
	Retencion10            decimal.NullDecimal
	Retencion2             decimal.NullDecimal
	Propina                decimal.NullDecimal
	PropinaLegal           decimal.NullDecimal
	TotalFacturado         decimal.Decimal
	TotalACobrar           decimal.NullDecimal

	FlagDudoso bool
	RazonDuda  string
	RawAIDump  map[string]any
	StorageKey string // objeto S3 con la imagen original
	Status     string
	IsDeleted  bool
	DeletedAt  *time.Time
	CreatedAt  time.Time
}

// IsProcessing informa si la factura sigue en la cola de extracción.
func (i *Invoice) IsProcessing() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusProcessing
}

// Confidence devuelve CONF_BIEN_SERVICIO del volcado de IA (1 si no existe).
func (i *Invoice) Confidence() float64 {
	if i.RawAIDump == nil {
		return 1
	}
	switch v := i.RawAIDump["CONF_BIEN_SERVICIO"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 1
}
