package repository

import (
	"context"

	"github.com/contablebot/portal-api/internal/domain/entity"
)

// FirmRepository define el puerto de persistencia para Firm.
type FirmRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Firm, error)
	IncrementUsage(ctx context.Context, id int64, n int) error
}
