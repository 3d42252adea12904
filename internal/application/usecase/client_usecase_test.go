package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
	"github.com/contablebot/portal-api/internal/testutil/memstore"
)

type fixture struct {
	store  *memstore.Store
	firm   *entity.Firm
	admin  usecase.Actor
	member usecase.Actor
}

// newFixture crea una firma con un admin y un usuario sin clientes asignados.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	firm := s.AddFirm(&entity.Firm{Name: "Contadores SRL", PlanLimit: 150, WhopPlanID: "plan_NOdE4Vm9Koxaw", IsActive: true})
	admin := s.AddUser(&entity.User{FirmID: firm.ID, Email: "admin@firma.do", Role: entity.RoleAdmin})
	member := s.AddUser(&entity.User{FirmID: firm.ID, Email: "ana@firma.do", Role: entity.RoleUser})
	return &fixture{
		store:  s,
		firm:   firm,
		admin:  usecase.Actor{UserID: admin.ID, FirmID: firm.ID, Role: entity.RoleAdmin},
		member: usecase.Actor{UserID: member.ID, FirmID: firm.ID, Role: entity.RoleUser},
	}
}

func (f *fixture) clientUC() *usecase.ClientUseCase {
	return usecase.NewClientUseCase(f.store.Clients(), f.store.Invoices(), f.store.Users(), f.store.Tx())
}

func (f *fixture) addInvoice(clientID int64, total string) *entity.Invoice {
	fecha := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	return f.store.AddInvoice(&entity.Invoice{
		FirmID:         f.firm.ID,
		ClientID:       &clientID,
		ClientName:     "Cliente",
		Fecha:          &fecha,
		TotalFacturado: decimal.RequireFromString(total),
		Status:         entity.InvoiceStatusOK,
		CreatedAt:      fecha,
	})
}

func TestClientCreate_GuardaFormaCompacta(t *testing.T) {
	f := newFixture(t)
	got, err := f.clientUC().Create(context.Background(), f.admin, dto.ClientRequest{Name: "  Ferretería Ochoa ", RNC: "1-30-12345-4"})
	require.NoError(t, err)

	assert.Equal(t, "Ferretería Ochoa", got.Name)
	assert.Equal(t, "130123454", got.RNC)
	assert.Equal(t, "1-30-12345-4", got.RNCFormatted)
	assert.NotZero(t, got.ID)
}

func TestClientCreate_DuplicadoSinImportarFormato(t *testing.T) {
	f := newFixture(t)
	uc := f.clientUC()
	_, err := uc.Create(context.Background(), f.admin, dto.ClientRequest{Name: "A", RNC: "130123454"})
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), f.admin, dto.ClientRequest{Name: "B", RNC: "1 30 12345 4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.Equal(t, "Ya existe un cliente con RNC 1-30-12345-4", err.Error())
}

func TestClientCreate_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	uc := f.clientUC()

	cases := []struct {
		name string
		in   dto.ClientRequest
		msg  string
	}{
		{"sin rnc", dto.ClientRequest{Name: "A"}, "El RNC es requerido"},
		{"sin nombre", dto.ClientRequest{RNC: "130123454"}, "El nombre del cliente es requerido"},
		{"longitud", dto.ClientRequest{Name: "A", RNC: "12345"}, "Recibido: 5 dígitos"},
		{"relleno", dto.ClientRequest{Name: "A", RNC: "000000000"}, "todos los dígitos son iguales"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), f.admin, tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestClientCreate_UsuarioNoAdminQuedaAsignado(t *testing.T) {
	f := newFixture(t)
	uc := f.clientUC()
	ctx := context.Background()

	_, err := uc.Create(ctx, f.admin, dto.ClientRequest{Name: "Solo admin", RNC: "101001747"})
	require.NoError(t, err)
	created, err := uc.Create(ctx, f.member, dto.ClientRequest{Name: "De Ana", RNC: "00113918205"})
	require.NoError(t, err)

	list, err := uc.List(ctx, f.member)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "001-1391820-5", list[0].RNCFormatted)

	all, err := uc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// assignFailTx ejecuta la transacción real pero hace fallar la asignación de clientes.
type assignFailTx struct{ inner repository.TxRunner }

type assignFailUsers struct{ repository.UserRepository }

func (assignFailUsers) AssignClient(context.Context, int64, int64) error {
	return errors.New("conexión perdida")
}

func (t assignFailTx) Run(ctx context.Context, fn func(repository.Repos) error) error {
	return t.inner.Run(ctx, func(r repository.Repos) error {
		r.Users = assignFailUsers{r.Users}
		return fn(r)
	})
}

func TestClientCreate_FallaAsignacionNoDejaCliente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := usecase.NewClientUseCase(f.store.Clients(), f.store.Invoices(), f.store.Users(), assignFailTx{f.store.Tx()})

	_, err := uc.Create(ctx, f.member, dto.ClientRequest{Name: "De Ana", RNC: "130123454"})
	require.Error(t, err)

	got, err := f.store.Clients().GetByRNC(ctx, f.firm.ID, "130123454")
	require.NoError(t, err)
	assert.Nil(t, got)
	ids, err := f.store.Users().AssignedClientIDs(ctx, f.member.UserID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// El mismo RNC puede registrarse después sin choque de duplicado.
	_, err = f.clientUC().Create(ctx, f.member, dto.ClientRequest{Name: "De Ana", RNC: "130123454"})
	require.NoError(t, err)
}

func TestClientCreate_AsignacionSeAgregaSinPerderLasPrevias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.clientUC()

	a, err := uc.Create(ctx, f.member, dto.ClientRequest{Name: "A", RNC: "130123454"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, f.member, dto.ClientRequest{Name: "B", RNC: "101001747"})
	require.NoError(t, err)

	ids, err := f.store.Users().AssignedClientIDs(ctx, f.member.UserID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, ids)
}

func TestClientUpdate(t *testing.T) {
	f := newFixture(t)
	uc := f.clientUC()
	ctx := context.Background()
	a, err := uc.Create(ctx, f.admin, dto.ClientRequest{Name: "A", RNC: "130123454"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, f.admin, dto.ClientRequest{Name: "B", RNC: "101001747"})
	require.NoError(t, err)

	t.Run("mismo rnc otro formato", func(t *testing.T) {
		got, err := uc.Update(ctx, f.admin, a.ID, dto.ClientRequest{Name: "A2", RNC: "1-30-12345-4"})
		require.NoError(t, err)
		assert.Equal(t, "A2", got.Name)
	})
	t.Run("rnc de otro cliente", func(t *testing.T) {
		_, err := uc.Update(ctx, f.admin, b.ID, dto.ClientRequest{Name: "B", RNC: "130123454"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDuplicate))
		assert.Contains(t, err.Error(), "Ya existe otro cliente con RNC 1-30-12345-4")
	})
	t.Run("no existe", func(t *testing.T) {
		_, err := uc.Update(ctx, f.admin, 9999, dto.ClientRequest{Name: "X", RNC: "130123454"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
	t.Run("no asignado", func(t *testing.T) {
		_, err := uc.Update(ctx, f.member, a.ID, dto.ClientRequest{Name: "X", RNC: "130123454"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestClientDelete_ConFacturas(t *testing.T) {
	f := newFixture(t)
	uc := f.clientUC()
	ctx := context.Background()
	c, err := uc.Create(ctx, f.admin, dto.ClientRequest{Name: "A", RNC: "130123454"})
	require.NoError(t, err)
	inv1 := f.addInvoice(c.ID, "100")
	f.addInvoice(c.ID, "200")

	_, err = uc.Delete(ctx, f.admin, c.ID, false)
	var attached *domain.InvoicesAttachedError
	require.True(t, errors.As(err, &attached))
	assert.Equal(t, 2, attached.Count)
	assert.True(t, errors.Is(err, domain.ErrClientHasInvoices))

	res, err := uc.Delete(ctx, f.admin, c.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.InvoicesDeleted)
	assert.Equal(t, "Cliente eliminado correctamente junto con 2 factura(s)", res.Message)

	stored, ok := f.store.Invoice(inv1.ID)
	require.True(t, ok)
	assert.True(t, stored.IsDeleted)
	assert.Nil(t, stored.ClientID)

	list, err := uc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClientDelete_SinFacturas(t *testing.T) {
	f := newFixture(t)
	uc := f.clientUC()
	ctx := context.Background()
	c, err := uc.Create(ctx, f.admin, dto.ClientRequest{Name: "A", RNC: "130123454"})
	require.NoError(t, err)

	res, err := uc.Delete(ctx, f.admin, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Cliente eliminado correctamente", res.Message)

	_, err = uc.Delete(ctx, f.admin, c.ID, false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
