package ports

import (
	"context"
	"time"

	"github.com/contablebot/portal-api/internal/domain/plan"
)

// PlanCache cachea la clave de plan resuelta por firma.
// Get devuelve ok=false si no hay entrada; un error indica fallo del backend.
type PlanCache interface {
	Get(ctx context.Context, firmID int64) (key plan.Key, ok bool, err error)
	Set(ctx context.Context, firmID int64, key plan.Key, ttl time.Duration) error
	Invalidate(ctx context.Context, firmID int64) error
}
