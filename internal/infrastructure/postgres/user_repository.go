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

var _ repository.UserRepository = (*UserRepo)(nil)

// Solo se consideran usuarios activos; Delete desactiva en lugar de borrar.
const userSelect = `
	SELECT id, firm_id, email, COALESCE(password_hash, ''), role, COALESCE(active_client_rnc, ''), created_at
	FROM portal_users`

// UserRepo implementación del puerto UserRepository sobre portal_users y user_clients.
type UserRepo struct {
	db Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(db Querier) *UserRepo {
	return &UserRepo{db: db}
}

// Create persiste un nuevo usuario activo.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO portal_users (firm_id, email, password_hash, role, active_client_rnc, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)
		RETURNING id`,
		u.FirmID, u.Email, u.PasswordHash, u.Role, nullIfEmpty(u.ActiveClientRNC), u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario activo por ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.one(ctx, userSelect+` WHERE id = $1 AND is_active`, id)
}

// GetByEmail obtiene un usuario por email (cualquier firma).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.one(ctx, userSelect+` WHERE lower(email) = lower($1) LIMIT 1`, email)
}

// ListByFirm lista los usuarios activos de la firma.
func (r *UserRepo) ListByFirm(ctx context.Context, firmID int64) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` WHERE firm_id = $1 AND is_active ORDER BY id`, firmID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountByFirm cuenta los usuarios activos de la firma.
func (r *UserRepo) CountByFirm(ctx context.Context, firmID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM portal_users WHERE firm_id = $1 AND is_active`, firmID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// UpdatePassword guarda un nuevo hash bcrypt.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE portal_users SET password_hash = $2 WHERE id = $1 AND is_active`, id, hash)
}

// SetActiveClient fija el cliente activo por su RNC compacto.
func (r *UserRepo) SetActiveClient(ctx context.Context, id int64, rnc string) error {
	return r.exec(ctx, `UPDATE portal_users SET active_client_rnc = $2 WHERE id = $1 AND is_active`, id, nullIfEmpty(rnc))
}

// Delete desactiva el usuario.
func (r *UserRepo) Delete(ctx context.Context, firmID, id int64) error {
	return r.exec(ctx, `UPDATE portal_users SET is_active = false WHERE firm_id = $1 AND id = $2 AND is_active`, firmID, id)
}

// AssignedClientIDs devuelve los clientes asignados al usuario.
func (r *UserRepo) AssignedClientIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT client_id FROM user_clients WHERE user_id = $1 ORDER BY client_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan assignments: %w", err)
	}
	return ids, nil
}

// ReplaceAssignments reemplaza las asignaciones del usuario. Debe ejecutarse
// dentro de una transacción (TxRunner).
func (r *UserRepo) ReplaceAssignments(ctx context.Context, userID int64, clientIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_clients WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	if len(clientIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_clients (user_id, client_id, is_default)
		SELECT $1, id, ord = 1
		FROM unnest($2::bigint[]) WITH ORDINALITY AS t(id, ord)`, userID, clientIDs)
	if err != nil {
		return fmt.Errorf("insert assignments: %w", err)
	}
	return nil
}

// AssignClient agrega un cliente al usuario. Es el predeterminado solo si el
// usuario no tenía ninguno.
func (r *UserRepo) AssignClient(ctx context.Context, userID, clientID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_clients (user_id, client_id, is_default)
		VALUES ($1, $2, NOT EXISTS (SELECT 1 FROM user_clients WHERE user_id = $1))
		ON CONFLICT DO NOTHING`, userID, clientID)
	if err != nil {
		return fmt.Errorf("assign client: %w", err)
	}
	return nil
}

func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) one(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.FirmID, &u.Email, &u.PasswordHash, &u.Role, &u.ActiveClientRNC, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
