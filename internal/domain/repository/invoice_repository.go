package repository

import (
	"context"
	"time"

	"github.com/contablebot/portal-api/internal/domain/entity"
)

// InvoiceFilter criterios de búsqueda de facturas. FirmID es obligatorio; las
// facturas eliminadas (soft delete) nunca se devuelven.
type InvoiceFilter struct {
	FirmID      int64
	From        *time.Time // fecha >= From
	To          *time.Time // fecha <= To
	CreatedFrom *time.Time // created_at >= CreatedFrom
	CreatedTo   *time.Time // created_at < CreatedTo
	ClientName  string     // coincidencia parcial sin distinguir mayúsculas
	ClientID    *int64
	ClientIDs   []int64 // restringe a clientes asignados (usuarios no admin)
	Statuses    []string
	FlaggedOnly bool // solo flag_dudoso = true
	Limit       int  // 0 = sin límite
}

// InvoiceRepository define el puerto de persistencia para Invoice.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, firmID, id int64) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	Count(ctx context.Context, filter InvoiceFilter) (int, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	SoftDelete(ctx context.Context, firmID, id int64, at time.Time) error
	// SoftDeleteByClient marca como eliminadas las facturas del cliente y quita la
	// referencia client_id para permitir borrar el cliente.
	SoftDeleteByClient(ctx context.Context, firmID, clientID int64, at time.Time) (int64, error)
}
