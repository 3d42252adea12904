package dto

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contablebot/portal-api/internal/domain/quality"
)

// InvoiceQuery filtros de GET /api/invoices y de las exportaciones 606.
// Fechas en formato YYYY-MM-DD.
type InvoiceQuery struct {
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Client   string `query:"client" validate:"max=200"`
	ClientID int64  `query:"client_id" validate:"min=0"`
	Status   string `query:"status"`
	Limit    int    `query:"limit" validate:"min=0,max=1000"`
}

// InvoiceResponse factura en respuestas. Montos opcionales se omiten si no fueron extraídos.
type InvoiceResponse struct {
	ID             int64   `json:"id"`
	FirmID         int64   `json:"firm_id"`
	UserID         *int64  `json:"user_id,omitempty"`
	ClientID       *int64  `json:"client_id,omitempty"`
	ClientName     string  `json:"client_name"`
	Fecha          *string `json:"fecha"`
	RNC            string  `json:"rnc"`
	RNCFormatted   string  `json:"rnc_formatted"`
	NCF            string  `json:"ncf"`
	NombreCompania string  `json:"nombre_compania,omitempty"`
	Materiales     string  `json:"materiales,omitempty"`

	MontoServicioExento    *decimal.Decimal `json:"monto_servicio_exento,omitempty"`
	MontoBienExento        *decimal.Decimal `json:"monto_bien_exento,omitempty"`
	TotalMontosExento      *decimal.Decimal `json:"total_montos_exento,omitempty"`
	MontoServicioGravado   *decimal.Decimal `json:"monto_servicio_gravado,omitempty"`
	MontoBienGravado       *decimal.Decimal `json:"monto_bien_gravado,omitempty"`
	TotalMontosGravado     *decimal.Decimal `json:"total_montos_gravado,omitempty"`
	ITBISServicios         *decimal.Decimal `json:"itbis_servicios,omitempty"`
	ITBISBienes            *decimal.Decimal `json:"itbis_bienes,omitempty"`
	TotalFacturadoITBIS    *decimal.Decimal `json:"total_facturado_itbis,omitempty"`
	ITBISServiciosRetenido *decimal.Decimal `json:"itbis_servicios_retenido,omitempty"`
	Retencion30ITBIS       *decimal.Decimal `json:"retencion_30_itbis,omitempty"`
	Retencion10            *decimal.Decimal `json:"retencion_10,omitempty"`
	Retencion2             *decimal.Decimal `json:"retencion_2,omitempty"`
	Propina                *decimal.Decimal `json:"propina,omitempty"`
	TotalFacturado         decimal.Decimal  `json:"total_facturado"`
	TotalACobrar           *decimal.Decimal `json:"total_a_cobrar,omitempty"`

	FlagDudoso bool      `json:"flag_dudoso"`
	RazonDuda  string    `json:"razon_duda,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// InvoicesResponse listado de facturas.
type InvoicesResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
}

// InvoicePatch body de PATCH /api/invoices/:id. Solo se actualizan los campos presentes.
type InvoicePatch struct {
	Fecha                  *string          `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	RNC                    *string          `json:"rnc" validate:"omitempty,rnc"`
	NCF                    *string          `json:"ncf" validate:"omitempty,max=19"`
	NombreCompania         *string          `json:"nombre_compania" validate:"omitempty,max=200"`
	Materiales             *string          `json:"materiales" validate:"omitempty,max=500"`
	MontoServicioExento    *decimal.Decimal `json:"monto_servicio_exento"`
	MontoBienExento        *decimal.Decimal `json:"monto_bien_exento"`
	TotalMontosExento      *decimal.Decimal `json:"total_montos_exento"`
	MontoServicioGravado   *decimal.Decimal `json:"monto_servicio_gravado"`
	MontoBienGravado       *decimal.Decimal `json:"monto_bien_gravado"`
	TotalMontosGravado     *decimal.Decimal `json:"total_montos_gravado"`
	ITBISServicios         *decimal.Decimal `json:"itbis_servicios"`
	ITBISBienes            *decimal.Decimal `json:"itbis_bienes"`
	TotalFacturadoITBIS    *decimal.Decimal `json:"total_facturado_itbis"`
	ITBISServiciosRetenido *decimal.Decimal `json:"itbis_servicios_retenido"`
	Retencion30ITBIS       *decimal.Decimal `json:"retencion_30_itbis"`
	Retencion10            *decimal.Decimal `json:"retencion_10"`
	Retencion2             *decimal.Decimal `json:"retencion_2"`
	Propina                *decimal.Decimal `json:"propina"`
	TotalFacturado         *decimal.Decimal `json:"total_facturado"`
	TotalACobrar           *decimal.Decimal `json:"total_a_cobrar"`
	Status                 *string          `json:"status" validate:"omitempty,oneof=OK REVIEW ERROR"`
}

// QAQuery parámetros de GET /api/invoices/qa.
type QAQuery struct {
	Filter string `query:"filter" validate:"omitempty,oneof=all flagged"`
	Limit  int    `query:"limit" validate:"min=0,max=1000"`
}

// PendingResponse respuesta de GET /api/invoices/pending.
type PendingResponse struct {
	Count int `json:"count"`
}

// UploadFile archivo recibido en POST /api/invoices/upload.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadResult resultado por archivo.
type UploadResult struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// UploadResponse respuesta de POST /api/invoices/upload.
type UploadResponse struct {
	Invoices      []UploadResult `json:"invoices"`
	TotalUploaded int            `json:"total_uploaded"`
	TotalFailed   int            `json:"total_failed"`
}

// QAInvoice factura con su evaluación de calidad.
type QAInvoice struct {
	Invoice InvoiceResponse `json:"invoice"`
	Quality quality.Result  `json:"quality"`
}

// QAResponse respuesta de GET /api/invoices/qa.
type QAResponse struct {
	Invoices []QAInvoice    `json:"invoices"`
	Stats    quality.Stats `json:"stats"`
}
