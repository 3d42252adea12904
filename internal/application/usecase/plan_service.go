package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/plan"
	"github.com/contablebot/portal-api/internal/domain/repository"
	"github.com/contablebot/portal-api/pkg/logger"
)

// PlanService resuelve el plan vigente de una firma y responde si alcanza un nivel.
// Es el único punto de la aplicación que traduce el plan del proveedor de cobros.
type PlanService struct {
	firms repository.FirmRepository
	cache ports.PlanCache // opcional
	ttl   time.Duration
	log   *logger.Logger
}

// NewPlanService construye el servicio. cache puede ser nil.
func NewPlanService(firms repository.FirmRepository, cache ports.PlanCache, ttl time.Duration, log *logger.Logger) *PlanService {
	if log == nil {
		log = logger.Nop()
	}
	return &PlanService{firms: firms, cache: cache, ttl: ttl, log: log.Component("plan")}
}

// CurrentPlan devuelve el plan de la firma. ok=false si la firma no tiene un plan
// reconocido en el catálogo. Los fallos de caché se registran y se ignoran.
func (s *PlanService) CurrentPlan(ctx context.Context, firmID int64) (plan.Plan, bool, error) {
	if s.cache != nil {
		key, hit, err := s.cache.Get(ctx, firmID)
		if err != nil {
			s.log.Warn().Err(err).Int64("firm_id", firmID).Msg("caché de planes no disponible")
		} else if hit {
			p, ok := plan.ByKey(key)
			return p, ok, nil
		}
	}

	firm, err := s.firms.GetByID(ctx, firmID)
	if err != nil {
		return plan.Plan{}, false, fmt.Errorf("plan: firma %d: %w", firmID, err)
	}
	if firm == nil {
		return plan.Plan{}, false, domain.ErrNotFound
	}
	p, ok := plan.ByProviderID(firm.WhopPlanID)
	if ok && s.cache != nil {
		if err := s.cache.Set(ctx, firmID, p.Key, s.ttl); err != nil {
			s.log.Warn().Err(err).Int64("firm_id", firmID).Msg("no se pudo cachear el plan")
		}
	}
	return p, ok, nil
}

// HasPlan informa si la firma tiene un plan de nivel required o superior.
// Devuelve false (sin error) si la firma no tiene plan; error solo ante fallos de infraestructura.
func (s *PlanService) HasPlan(ctx context.Context, firmID int64, required plan.Key) (bool, error) {
	p, ok, err := s.CurrentPlan(ctx, firmID)
	if err != nil {
		return false, err
	}
	return ok && plan.Meets(p.Key, required), nil
}

// Invalidate descarta el plan cacheado de la firma.
func (s *PlanService) Invalidate(ctx context.Context, firmID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, firmID)
}
