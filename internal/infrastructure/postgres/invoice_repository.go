package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `
	id, firm_id, user_id, client_id, COALESCE(client_name, ''), fecha,
	COALESCE(rnc, ''), COALESCE(ncf, ''), COALESCE(nombre_compania, ''), COALESCE(materiales, ''),
	monto_servicio_exento, monto_bien_exento, total_montos_exento,
	monto_servicio_gravado, monto_bien_gravado, total_montos_gravado,
	itbis_servicios, itbis_bienes, total_facturado_itbis,
	itbis_servicios_retenido, retencion_30_itbis, retencion_10, retencion_2,
	propina, propina_legal, COALESCE(total_facturado, 0), total_a_cobrar,
	COALESCE(flag_dudoso, false), COALESCE(razon_duda, ''), raw_ai_dump,
	COALESCE(image_key, ''), COALESCE(status, ''), COALESCE(is_deleted, false), deleted_at, created_at`

// InvoiceRepo implementación de InvoiceRepository sobre la tabla invoices.
type InvoiceRepo struct {
	db Querier
}

// NewInvoiceRepository construye el adaptador de facturas.
func NewInvoiceRepository(db Querier) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

// Create inserta una factura y completa su ID.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (firm_id, user_id, client_id, client_name, fecha, rnc, ncf,
		                      total_facturado, image_key, status, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11)
		RETURNING id`,
		inv.FirmID, inv.UserID, inv.ClientID, inv.ClientName, inv.Fecha, inv.RNC, inv.NCF,
		inv.TotalFacturado, nullIfEmpty(inv.StorageKey), inv.Status, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura no eliminada de la firma.
func (r *InvoiceRepo) GetByID(ctx context.Context, firmID, id int64) (*entity.Invoice, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE firm_id = $1 AND id = $2 AND NOT COALESCE(is_deleted, false)`,
		firmID, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

// List devuelve las facturas del filtro ordenadas por fecha descendente.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	where, args := buildInvoiceWhere(f)
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + where + ` ORDER BY fecha DESC NULLS LAST, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Count cuenta las facturas del filtro (ignora Limit).
func (r *InvoiceRepo) Count(ctx context.Context, f repository.InvoiceFilter) (int, error) {
	where, args := buildInvoiceWhere(f)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

// Update guarda los campos editables de la factura.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET
			fecha = $3, rnc = $4, ncf = $5, nombre_compania = $6, materiales = $7,
			monto_servicio_exento = $8, monto_bien_exento = $9, total_montos_exento = $10,
			monto_servicio_gravado = $11, monto_bien_gravado = $12, total_montos_gravado = $13,
			itbis_servicios = $14, itbis_bienes = $15, total_facturado_itbis = $16,
			itbis_servicios_retenido = $17, retencion_30_itbis = $18, retencion_10 = $19, retencion_2 = $20,
			propina = $21, total_facturado = $22, total_a_cobrar = $23,
			flag_dudoso = $24, razon_duda = $25, status = $26
		WHERE firm_id = $1 AND id = $2 AND NOT COALESCE(is_deleted, false)`,
		inv.FirmID, inv.ID, inv.Fecha, inv.RNC, inv.NCF, nullIfEmpty(inv.NombreCompania), nullIfEmpty(inv.Materiales),
		inv.MontoServicioExento, inv.MontoBienExento, inv.TotalMontosExento,
		inv.MontoServicioGravado, inv.MontoBienGravado, inv.TotalMontosGravado,
		inv.ITBISServicios, inv.ITBISBienes, inv.TotalFacturadoITBIS,
		inv.ITBISServiciosRetenido, inv.Retencion30ITBIS, inv.Retencion10, inv.Retencion2,
		inv.Propina, inv.TotalFacturado, inv.TotalACobrar,
		inv.FlagDudoso, nullIfEmpty(inv.RazonDuda), inv.Status,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca la factura como eliminada.
func (r *InvoiceRepo) SoftDelete(ctx context.Context, firmID, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET is_deleted = true, deleted_at = $3
		WHERE firm_id = $1 AND id = $2 AND NOT COALESCE(is_deleted, false)`, firmID, id, at)
	if err != nil {
		return fmt.Errorf("soft delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteByClient elimina las facturas del cliente y las desvincula.
// Devuelve cuántas estaban vigentes.
func (r *InvoiceRepo) SoftDeleteByClient(ctx context.Context, firmID, clientID int64, at time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		WITH upd AS (
			UPDATE invoices
			SET deleted_at = CASE WHEN COALESCE(is_deleted, false) THEN deleted_at ELSE $3 END,
			    is_deleted = true,
			    client_id  = NULL
			WHERE firm_id = $1 AND client_id = $2
			RETURNING (deleted_at = $3) AS fresh
		)
		SELECT count(*) FILTER (WHERE fresh) FROM upd`, firmID, clientID, at).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("soft delete client invoices: %w", err)
	}
	return n, nil
}

// buildInvoiceWhere arma la cláusula WHERE con placeholders posicionales.
func buildInvoiceWhere(f repository.InvoiceFilter) (string, []any) {
	conds := []string{"firm_id = $1", "NOT COALESCE(is_deleted, false)"}
	args := []any{f.FirmID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.From != nil {
		add("fecha >= ?", *f.From)
	}
	if f.To != nil {
		add("fecha <= ?", *f.To)
	}
	if f.CreatedFrom != nil {
		add("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at < ?", *f.CreatedTo)
	}
	if f.ClientName != "" {
		add("client_name ILIKE ?", "%"+escapeLike(f.ClientName)+"%")
	}
	if f.ClientID != nil {
		add("client_id = ?", *f.ClientID)
	}
	if f.ClientIDs != nil {
		add("client_id = ANY(?)", f.ClientIDs)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY(?)", f.Statuses)
	}
	if f.FlaggedOnly {
		conds = append(conds, "flag_dudoso")
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv entity.Invoice
		raw []byte
	)
	err := row.Scan(
		&inv.ID, &inv.FirmID, &inv.UserID, &inv.ClientID, &inv.ClientName, &inv.Fecha,
		&inv.RNC, &inv.NCF, &inv.NombreCompania, &inv.Materiales,
		&inv.MontoServicioExento, &inv.MontoBienExento, &inv.TotalMontosExento,
		&inv.MontoServicioGravado, &inv.MontoBienGravado, &inv.TotalMontosGravado,
		&inv.ITBISServicios, &inv.ITBISBienes, &inv.TotalFacturadoITBIS,
		&inv.ITBISServiciosRetenido, &inv.Retencion30ITBIS, &inv.Retencion10, &inv.Retencion2,
		&inv.Propina, &inv.PropinaLegal, &inv.TotalFacturado, &inv.TotalACobrar,
		&inv.FlagDudoso, &inv.RazonDuda, &raw,
		&inv.StorageKey, &inv.Status, &inv.IsDeleted, &inv.DeletedAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	if len(raw) > 0 {
		// Un volcado ilegible no invalida la factura; se trata como ausente.
		if err := json.Unmarshal(raw, &inv.RawAIDump); err != nil {
			inv.RawAIDump = nil
		}
	}
	return &inv, nil
}
