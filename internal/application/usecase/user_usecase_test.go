package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/pkg/logger"
)

func (f *fixture) userUC() *usecase.UserUseCase {
	plans := usecase.NewPlanService(f.store.Firms(), nil, 0, logger.Nop())
	return usecase.NewUserUseCase(f.store.Users(), f.store.Clients(), f.store.Firms(), plans, f.store.Tx())
}

func TestUserMe(t *testing.T) {
	f := newFixture(t)
	c := f.client("A", "130123454")
	require.NoError(t, f.store.Users().SetActiveClient(context.Background(), f.admin.UserID, c.RNC))

	me, err := f.userUC().Me(context.Background(), f.admin)
	require.NoError(t, err)
	assert.Equal(t, "admin@firma.do", me.Email)
	assert.Equal(t, "Contadores SRL", me.FirmName)
	require.NotNil(t, me.Plan)
	assert.Equal(t, "pro", me.Plan.Key)
	assert.Equal(t, 1500, me.PlanLimit)
	require.NotNil(t, me.ActiveClient)
	assert.Equal(t, "1-30-12345-4", me.ActiveClient.RNCFormatted)
}

func TestUserSwitchClient(t *testing.T) {
	f := newFixture(t)
	a := f.client("A", "130123454")
	b := f.client("B", "101001747")
	ctx := context.Background()
	require.NoError(t, f.store.Users().ReplaceAssignments(ctx, f.member.UserID, []int64{a.ID}))
	uc := f.userUC()

	got, err := uc.SwitchClient(ctx, f.member, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	u, _ := f.store.Users().GetByID(ctx, f.member.UserID)
	assert.Equal(t, "130123454", u.ActiveClientRNC)

	_, err = uc.SwitchClient(ctx, f.member, b.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.SwitchClient(ctx, f.member, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("actual-123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.Users().UpdatePassword(ctx, f.member.UserID, string(hash)))
	uc := f.userUC()

	err = uc.ChangePassword(ctx, f.member, dto.ChangePasswordRequest{CurrentPassword: "otra-cosa", NewPassword: "nueva-clave"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	err = uc.ChangePassword(ctx, f.member, dto.ChangePasswordRequest{CurrentPassword: "actual-123", NewPassword: "corta"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	require.NoError(t, uc.ChangePassword(ctx, f.member, dto.ChangePasswordRequest{CurrentPassword: "actual-123", NewPassword: "nueva-clave"}))
	u, _ := f.store.Users().GetByID(ctx, f.member.UserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("nueva-clave")))
}

func TestUserCreate(t *testing.T) {
	f := newFixture(t)
	a := f.client("A", "130123454")
	b := f.client("B", "101001747")
	ctx := context.Background()
	uc := f.userUC()

	got, err := uc.Create(ctx, f.admin, dto.CreateUserRequest{Email: " Luis@Firma.do ", Password: "secreta-123", ClientIDs: []int64{b.ID, a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, "luis@firma.do", got.Email)
	assert.Equal(t, entity.RoleUser, got.Role)
	assert.Equal(t, []int64{b.ID, a.ID}, got.ClientIDs)
	assert.Equal(t, "101001747", got.ActiveClientRNC)

	stored, err := f.store.Users().GetByEmail(ctx, "luis@firma.do")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreta-123")))

	_, err = uc.Create(ctx, f.admin, dto.CreateUserRequest{Email: "luis@firma.do", Password: "secreta-123", ClientIDs: []int64{a.ID}})
	assert.True(t, errors.Is(err, domain.ErrEmailAlreadyExists))

	_, err = uc.Create(ctx, f.admin, dto.CreateUserRequest{Email: "x@firma.do", Password: "secreta-123", ClientIDs: []int64{424242}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.EqualError(t, err, "Uno o más clientes no son válidos")

	_, err = uc.Create(ctx, f.admin, dto.CreateUserRequest{Email: "x@firma.do", Password: "secreta-123"})
	assert.EqualError(t, err, "Debe asignar al menos un cliente")
}

func TestUserCreate_LimiteDelPlan(t *testing.T) {
	f := newFixture(t)
	a := f.client("A", "130123454")
	ctx := context.Background()
	// Plan Pro: 5 usuarios; la firma ya tiene 2.
	uc := f.userUC()
	for _, email := range []string{"u3@firma.do", "u4@firma.do", "u5@firma.do"} {
		_, err := uc.Create(ctx, f.admin, dto.CreateUserRequest{Email: email, Password: "secreta-123", ClientIDs: []int64{a.ID}})
		require.NoError(t, err)
	}
	_, err := uc.Create(ctx, f.admin, dto.CreateUserRequest{Email: "u6@firma.do", Password: "secreta-123", ClientIDs: []int64{a.ID}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUserLimitReached))
	assert.Contains(t, err.Error(), "límite de 5 usuarios para el plan Pro")
}

func TestUserDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.store.AddUser(&entity.User{FirmID: f.firm.ID, Email: "jefe@firma.do", Role: entity.RoleAdmin})
	uc := f.userUC()

	assert.EqualError(t, uc.Delete(ctx, f.admin, f.admin.UserID), "No puedes eliminar tu propia cuenta")
	assert.True(t, errors.Is(uc.Delete(ctx, f.admin, other.ID), domain.ErrForbidden))
	assert.True(t, errors.Is(uc.Delete(ctx, f.admin, 9999), domain.ErrUserNotFound))

	require.NoError(t, uc.Delete(ctx, f.admin, f.member.UserID))
	u, _ := f.store.Users().GetByID(ctx, f.member.UserID)
	assert.Nil(t, u)
}

func TestUserAssignClients(t *testing.T) {
	f := newFixture(t)
	a := f.client("A", "130123454")
	b := f.client("B", "101001747")
	ctx := context.Background()
	require.NoError(t, f.store.Users().ReplaceAssignments(ctx, f.member.UserID, []int64{a.ID}))
	require.NoError(t, f.store.Users().SetActiveClient(ctx, f.member.UserID, a.RNC))
	uc := f.userUC()

	got, err := uc.AssignClients(ctx, f.admin, f.member.UserID, []int64{b.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, got.ClientIDs)
	assert.Equal(t, b.RNC, got.ActiveClientRNC, "el cliente activo debe pasar al primero asignado")

	_, err = uc.AssignClients(ctx, f.admin, f.member.UserID, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = uc.AssignClients(ctx, f.admin, f.admin.UserID, []int64{a.ID})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	list, err := uc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int64{b.ID}, list[1].ClientIDs)
}
