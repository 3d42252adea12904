package repository

import (
	"context"

	"github.com/contablebot/portal-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByFirm(ctx context.Context, firmID int64) ([]*entity.User, error)
	CountByFirm(ctx context.Context, firmID int64) (int, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetActiveClient(ctx context.Context, id int64, rnc string) error
	Delete(ctx context.Context, firmID, id int64) error
	AssignedClientIDs(ctx context.Context, userID int64) ([]int64, error)
	ReplaceAssignments(ctx context.Context, userID int64, clientIDs []int64) error
	// AssignClient agrega una asignación sin tocar las existentes; repetirla no es error.
	AssignClient(ctx context.Context, userID, clientID int64) error
}
