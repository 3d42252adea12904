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

var _ repository.FirmRepository = (*FirmRepo)(nil)

// FirmRepo implementación de FirmRepository sobre la tabla firms.
type FirmRepo struct {
	db Querier
}

// NewFirmRepository construye el adaptador de firmas.
func NewFirmRepository(db Querier) *FirmRepo {
	return &FirmRepo{db: db}
}

// GetByID obtiene una firma; (nil, nil) si no existe.
func (r *FirmRepo) GetByID(ctx context.Context, id int64) (*entity.Firm, error) {
	query := `
		SELECT id, name, COALESCE(email, ''), COALESCE(usage_current_month, 0), COALESCE(plan_limit, 0),
		       whop_plan_id, whop_membership_id, manage_url, COALESCE(is_active, false), created_at
		FROM firms WHERE id = $1`
	var (
		f                           entity.Firm
		planID, membershipID, mgURL *string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Email, &f.UsageCurrentMonth, &f.PlanLimit,
		&planID, &membershipID, &mgURL, &f.IsActive, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get firm: %w", err)
	}
	f.WhopPlanID = orEmpty(planID)
	f.WhopMembershipID = orEmpty(membershipID)
	f.ManageURL = orEmpty(mgURL)
	return &f, nil
}

// IncrementUsage suma n al uso del mes de la firma.
func (r *FirmRepo) IncrementUsage(ctx context.Context, id int64, n int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE firms SET usage_current_month = COALESCE(usage_current_month, 0) + $2 WHERE id = $1`, id, n)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
