package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
)

const minPasswordLen = 8

// UserUseCase aplica reglas de negocio para usuarios del portal.
type UserUseCase struct {
	users   repository.UserRepository
	clients repository.ClientRepository
	firms   repository.FirmRepository
	plans   *PlanService
	tx      repository.TxRunner
	now     func() time.Time
}

// NewUserUseCase construye el caso de uso con los puertos de persistencia.
func NewUserUseCase(
	users repository.UserRepository,
	clients repository.ClientRepository,
	firms repository.FirmRepository,
	plans *PlanService,
	tx repository.TxRunner,
) *UserUseCase {
	return &UserUseCase{users: users, clients: clients, firms: firms, plans: plans, tx: tx, now: time.Now}
}

// Me devuelve el perfil del actor con el resumen de la firma y el cliente activo.
func (uc *UserUseCase) Me(ctx context.Context, a Actor) (*dto.MeResponse, error) {
	u, err := uc.users.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("obtener usuario: %w", err)
	}
	if u == nil || u.FirmID != a.FirmID {
		return nil, domain.ErrUserNotFound
	}
	firm, err := uc.firms.GetByID(ctx, a.FirmID)
	if err != nil {
		return nil, fmt.Errorf("obtener firma: %w", err)
	}
	if firm == nil {
		return nil, domain.ErrNotFound
	}

	resp := &dto.MeResponse{
		UserID:            u.ID,
		Email:             u.Email,
		Role:              u.Role,
		FirmID:            firm.ID,
		FirmName:          firm.Name,
		UsageCurrentMonth: firm.UsageCurrentMonth,
		PlanLimit:         firm.PlanLimit,
		IsActive:          firm.IsActive,
	}
	if uc.plans != nil {
		p, ok, err := uc.plans.CurrentPlan(ctx, firm.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			resp.Plan = &dto.PlanSummary{Key: string(p.Key), Name: p.Name, MonthlyInvoices: p.MonthlyInvoices, MaxUsers: p.MaxUsers}
			resp.PlanLimit = p.MonthlyInvoices
		}
	}
	if u.ActiveClientRNC != "" {
		c, err := uc.clients.GetByRNC(ctx, firm.ID, u.ActiveClientRNC)
		if err != nil {
			return nil, fmt.Errorf("obtener cliente activo: %w", err)
		}
		if c != nil {
			cr := toClientResponse(c)
			resp.ActiveClient = &cr
		}
	}
	return resp, nil
}

// SwitchClient fija el cliente activo del actor (destino de las cargas de facturas).
func (uc *UserUseCase) SwitchClient(ctx context.Context, a Actor, clientID int64) (*dto.ClientResponse, error) {
	c, err := uc.clients.GetByID(ctx, a.FirmID, clientID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if c == nil {
		return nil, domain.NewUserError(domain.ErrNotFound, "Cliente no encontrado")
	}
	ids, restricted, err := clientScope(ctx, uc.users, a)
	if err != nil {
		return nil, err
	}
	if restricted && !containsID(ids, c.ID) {
		return nil, domain.NewUserError(domain.ErrForbidden, "No tienes acceso a este cliente")
	}
	if err := uc.users.SetActiveClient(ctx, a.UserID, c.RNC); err != nil {
		return nil, fmt.Errorf("cambiar cliente activo: %w", err)
	}
	resp := toClientResponse(c)
	return &resp, nil
}

// ChangePassword verifica la contraseña actual y guarda el hash de la nueva.
func (uc *UserUseCase) ChangePassword(ctx context.Context, a Actor, in dto.ChangePasswordRequest) error {
	if len(in.NewPassword) < minPasswordLen {
		return domain.NewUserError(domain.ErrInvalidInput, "La contraseña debe tener al menos 8 caracteres")
	}
	u, err := uc.users.GetByID(ctx, a.UserID)
	if err != nil {
		return fmt.Errorf("obtener usuario: %w", err)
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.NewUserError(domain.ErrUnauthorized, "La contraseña actual es incorrecta")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.users.UpdatePassword(ctx, u.ID, string(hash))
}

// List devuelve los usuarios de la firma con sus clientes asignados.
func (uc *UserUseCase) List(ctx context.Context, a Actor) ([]dto.UserResponse, error) {
	list, err := uc.users.ListByFirm(ctx, a.FirmID)
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w", err)
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		r := toUserResponse(u)
		if !u.IsAdmin() {
			if r.ClientIDs, err = uc.users.AssignedClientIDs(ctx, u.ID); err != nil {
				return nil, fmt.Errorf("clientes asignados: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// Create da de alta un usuario (rol user) con sus clientes asignados. Aplica el
// límite de usuarios del plan; el primer cliente queda como cliente activo.
func (uc *UserUseCase) Create(ctx context.Context, a Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		return nil, domain.NewUserError(domain.ErrInvalidInput, "Email inválido")
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.NewUserError(domain.ErrInvalidInput, "La contraseña debe tener al menos 8 caracteres")
	}
	if len(in.ClientIDs) == 0 {
		return nil, domain.NewUserError(domain.ErrInvalidInput, "Debe asignar al menos un cliente")
	}
	if err := uc.checkUserLimit(ctx, a.FirmID); err != nil {
		return nil, err
	}
	clients, err := uc.firmClients(ctx, a.FirmID, in.ClientIDs)
	if err != nil {
		return nil, err
	}
	existing, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("verificar email: %w", err)
	}
	if existing != nil {
		return nil, domain.NewUserError(domain.ErrEmailAlreadyExists, "Este email ya está registrado")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		FirmID:          a.FirmID,
		Email:           email,
		PasswordHash:    string(hash),
		Role:            entity.RoleUser,
		ActiveClientRNC: clients[0].RNC,
		CreatedAt:       uc.now(),
	}
	ids := clientIDs(clients)
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Users.Create(ctx, u); err != nil {
			return err
		}
		return r.Users.ReplaceAssignments(ctx, u.ID, ids)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewUserError(domain.ErrEmailAlreadyExists, "Este email ya está registrado")
		}
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	resp := toUserResponse(u)
	resp.ClientIDs = ids
	return &resp, nil
}

// Delete elimina un usuario de la firma. No se puede eliminar la propia cuenta ni
// a un administrador.
func (uc *UserUseCase) Delete(ctx context.Context, a Actor, id int64) error {
	if id == a.UserID {
		return domain.NewUserError(domain.ErrForbidden, "No puedes eliminar tu propia cuenta")
	}
	target, err := uc.firmUser(ctx, a.FirmID, id)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return domain.NewUserError(domain.ErrForbidden, "No se pueden eliminar usuarios administradores")
	}
	return uc.users.Delete(ctx, a.FirmID, id)
}

// AssignClients reemplaza los clientes asignados a un usuario. Si su cliente
// activo deja de estar asignado pasa a ser el primero de la nueva lista.
func (uc *UserUseCase) AssignClients(ctx context.Context, a Actor, id int64, ids []int64) (*dto.UserResponse, error) {
	if len(ids) == 0 {
		return nil, domain.NewUserError(domain.ErrInvalidInput, "El usuario debe tener al menos un cliente asignado")
	}
	target, err := uc.firmUser(ctx, a.FirmID, id)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, domain.NewUserError(domain.ErrForbidden, "No se pueden modificar usuarios administradores")
	}
	clients, err := uc.firmClients(ctx, a.FirmID, ids)
	if err != nil {
		return nil, err
	}
	newIDs := clientIDs(clients)
	active := target.ActiveClientRNC
	keep := false
	for _, c := range clients {
		if c.RNC == active {
			keep = true
			break
		}
	}
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Users.ReplaceAssignments(ctx, target.ID, newIDs); err != nil {
			return err
		}
		if keep {
			return nil
		}
		return r.Users.SetActiveClient(ctx, target.ID, clients[0].RNC)
	})
	if err != nil {
		return nil, fmt.Errorf("asignar clientes: %w", err)
	}
	if !keep {
		target.ActiveClientRNC = clients[0].RNC
	}
	resp := toUserResponse(target)
	resp.ClientIDs = newIDs
	return &resp, nil
}

func (uc *UserUseCase) checkUserLimit(ctx context.Context, firmID int64) error {
	if uc.plans == nil {
		return nil
	}
	p, ok, err := uc.plans.CurrentPlan(ctx, firmID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	total, err := uc.users.CountByFirm(ctx, firmID)
	if err != nil {
		return fmt.Errorf("contar usuarios: %w", err)
	}
	if !p.AllowsUsers(total + 1) {
		return domain.NewUserError(domain.ErrUserLimitReached, fmt.Sprintf(
			"Has alcanzado el límite de %d usuarios para el plan %s. Actualiza tu plan para agregar más usuarios.", p.MaxUsers, p.Name))
	}
	return nil
}

func (uc *UserUseCase) firmUser(ctx context.Context, firmID, id int64) (*entity.User, error) {
	u, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener usuario: %w", err)
	}
	if u == nil || u.FirmID != firmID {
		return nil, domain.NewUserError(domain.ErrUserNotFound, "Usuario no encontrado")
	}
	return u, nil
}

// firmClients carga los clientes pedidos sin duplicados; todos deben ser de la firma.
func (uc *UserUseCase) firmClients(ctx context.Context, firmID int64, ids []int64) ([]*entity.Client, error) {
	seen := make(map[int64]bool, len(ids))
	out := make([]*entity.Client, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, err := uc.clients.GetByID(ctx, firmID, id)
		if err != nil {
			return nil, fmt.Errorf("verificar clientes: %w", err)
		}
		if c == nil {
			return nil, domain.NewUserError(domain.ErrInvalidInput, "Uno o más clientes no son válidos")
		}
		out = append(out, c)
	}
	return out, nil
}

func clientIDs(clients []*entity.Client) []int64 {
	ids := make([]int64, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	return ids
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID,
		FirmID:          u.FirmID,
		Email:           u.Email,
		Role:            u.Role,
		ActiveClientRNC: u.ActiveClientRNC,
		CreatedAt:       u.CreatedAt,
	}
}
