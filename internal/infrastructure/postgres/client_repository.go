package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

const clientColumns = `c.id, c.firm_id, c.name, c.rnc, c.created_at`

// ClientRepo implementación de ClientRepository sobre la tabla clients.
type ClientRepo struct {
	db Querier
}

// NewClientRepository construye el adaptador de clientes.
func NewClientRepository(db Querier) *ClientRepo {
	return &ClientRepo{db: db}
}

// Create inserta el cliente. Un RNC repetido en la firma devuelve domain.ErrDuplicate.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO clients (firm_id, name, rnc, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.FirmID, c.Name, c.RNC, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente de la firma.
func (r *ClientRepo) GetByID(ctx context.Context, firmID, id int64) (*entity.Client, error) {
	return r.one(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.firm_id = $1 AND c.id = $2`, firmID, id)
}

// GetByRNC obtiene un cliente por su RNC compacto.
func (r *ClientRepo) GetByRNC(ctx context.Context, firmID int64, rnc string) (*entity.Client, error) {
	return r.one(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.firm_id = $1 AND c.rnc = $2`, firmID, rnc)
}

// ListByFirm lista los clientes de la firma por nombre.
func (r *ClientRepo) ListByFirm(ctx context.Context, firmID int64) ([]*entity.Client, error) {
	return r.many(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.firm_id = $1 ORDER BY c.name, c.id`, firmID)
}

// ListAssigned lista los clientes asignados al usuario (user_clients).
func (r *ClientRepo) ListAssigned(ctx context.Context, firmID, userID int64) ([]*entity.Client, error) {
	return r.many(ctx, `
		SELECT `+clientColumns+`
		FROM clients c
		JOIN user_clients uc ON uc.client_id = c.id
		WHERE c.firm_id = $1 AND uc.user_id = $2
		ORDER BY c.name, c.id`, firmID, userID)
}

// Update actualiza nombre y RNC.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE clients SET name = $3, rnc = $4 WHERE firm_id = $1 AND id = $2`,
		c.FirmID, c.ID, c.Name, c.RNC)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el cliente y sus asignaciones.
func (r *ClientRepo) Delete(ctx context.Context, firmID, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_clients WHERE client_id = $1`, id); err != nil {
		return fmt.Errorf("delete client assignments: %w", err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE firm_id = $1 AND id = $2`, firmID, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ClientRepo) one(ctx context.Context, query string, args ...any) (*entity.Client, error) {
	var c entity.Client
	err := r.db.QueryRow(ctx, query, args...).Scan(&c.ID, &c.FirmID, &c.Name, &c.RNC, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepo) many(ctx context.Context, query string, args ...any) ([]*entity.Client, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var out []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.FirmID, &c.Name, &c.RNC, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
