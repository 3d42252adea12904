package dto

import "time"

// ClientRequest body para POST /api/clients y PATCH /api/clients/:id.
// rnc acepta la forma con guiones o compacta; se persiste solo la compacta.
type ClientRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	RNC  string `json:"rnc" validate:"required,rnc"`
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID           int64     `json:"id"`
	FirmID       int64     `json:"firm_id"`
	Name         string    `json:"name"`
	RNC          string    `json:"rnc"`
	RNCFormatted string    `json:"rnc_formatted"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClientsResponse listado de clientes.
type ClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
}

// ClientHasInvoicesResponse 409 al borrar un cliente con facturas.
type ClientHasInvoicesResponse struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	InvoiceCount int    `json:"invoice_count"`
}

// DeleteClientResponse resultado de DELETE /api/clients/:id.
type DeleteClientResponse struct {
	OK              bool   `json:"ok"`
	Message         string `json:"message"`
	InvoicesDeleted int64  `json:"invoices_deleted"`
}
