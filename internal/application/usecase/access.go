package usecase

import (
	"context"
	"fmt"

	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
)

// Actor usuario autenticado que ejecuta la operación (datos del JWT).
type Actor struct {
	UserID int64
	FirmID int64
	Role   string
}

// IsAdmin informa si el actor administra la firma.
func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

// clientScope devuelve los clientes visibles para el actor. restricted=false
// significa "todos los de la firma" (administradores).
func clientScope(ctx context.Context, users repository.UserRepository, a Actor) (ids []int64, restricted bool, err error) {
	if a.IsAdmin() {
		return nil, false, nil
	}
	ids, err = users.AssignedClientIDs(ctx, a.UserID)
	if err != nil {
		return nil, true, fmt.Errorf("clientes asignados: %w", err)
	}
	return ids, true, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
