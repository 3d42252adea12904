package repository

import (
	"context"

	"github.com/contablebot/portal-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client.
// Todas las operaciones van acotadas a la firma (tenant).
// GetByID y GetByRNC devuelven (nil, nil) si no existe.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, firmID, id int64) (*entity.Client, error)
	GetByRNC(ctx context.Context, firmID int64, rnc string) (*entity.Client, error)
	ListByFirm(ctx context.Context, firmID int64) ([]*entity.Client, error)
	ListAssigned(ctx context.Context, firmID, userID int64) ([]*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, firmID, id int64) error
}
