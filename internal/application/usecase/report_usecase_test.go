package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/testutil/memstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC)
	cases := []struct {
		period          string
		start, previous string
	}{
		{"", "2026-10-01", "2026-09-01"},
		{PeriodMonth, "2026-10-01", "2026-09-01"},
		{PeriodQuarter, "2026-07-01", "2026-04-01"},
		{PeriodYear, "2025-10-01", "2024-10-01"},
	}
	for _, tc := range cases {
		start, prev, err := periodBounds(tc.period, now)
		require.NoError(t, err, tc.period)
		assert.Equal(t, tc.start, start.Format(dateLayout), tc.period)
		assert.Equal(t, tc.previous, prev.Format(dateLayout), tc.period)
	}

	_, _, err := periodBounds("week", now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Septiembre", MonthName(time.September, true))
	assert.Equal(t, "enero", MonthName(time.January, false))
}

func TestRow606From_DerivaTotales(t *testing.T) {
	fecha := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{
		RNC:                  "130123454",
		NCF:                  "B0100000001",
		ClientName:           "Cliente X",
		Fecha:                &fecha,
		MontoServicioExento:  nd("10"),
		MontoBienExento:      nd("5.50"),
		MontoServicioGravado: nd("100"),
		TotalMontosGravado:   nd("250"), // presente: no se recalcula
		ITBISServicios:       nd("18"),
		ITBISBienes:          nd("27"),
		PropinaLegal:         nd("10"),
		TotalFacturado:       d("310.50"),
	}
	r := Row606From(inv)

	assert.Equal(t, "2026-09-03", r.Fecha)
	assert.Equal(t, "Cliente X", r.NombreCompania, "sin nombre de compañía se usa el del cliente")
	assert.Equal(t, "15.5", r.TotalMontosExento.String())
	assert.Equal(t, "250", r.TotalMontosGravado.String())
	assert.Equal(t, "45", r.TotalFacturadoITBIS.String())
	assert.Equal(t, "10", r.Propina.String())
	assert.True(t, r.TotalACobrar.IsZero())
	assert.Len(t, r.Amounts(), len(dto.Columns606)-5)
}

func TestEncode606CSV(t *testing.T) {
	report := &dto.Report606{Rows: []dto.Row606{
		{RNC: "130123454", Fecha: "2026-09-03", NombreCompania: "Ochoa, S.R.L.", NCF: "B0100000001", TotalFacturado: d("118")},
	}}
	data, err := Encode606CSV(report)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, dto.Columns606, records[0])
	assert.Equal(t, "Ochoa, S.R.L.", records[1][2])
	assert.Equal(t, "118.00", records[1][19])
	assert.Equal(t, "0.00", records[1][5])
}

func TestSanitizeFilePart(t *testing.T) {
	assert.Equal(t, "Ferreter_a_L_pez_SRL", sanitizeFilePart("Ferretería López SRL"))
}

type reportFixture struct {
	store *memstore.Store
	uc    *ReportUseCase
	admin Actor
	a, b  *entity.Client
}

func newReportFixture(now time.Time) *reportFixture {
	s := memstore.New()
	firm := s.AddFirm(&entity.Firm{Name: "Contadores SRL"})
	admin := s.AddUser(&entity.User{FirmID: firm.ID, Email: "admin@firma.do", Role: entity.RoleAdmin})
	f := &reportFixture{
		store: s,
		admin: Actor{UserID: admin.ID, FirmID: firm.ID, Role: entity.RoleAdmin},
		a:     s.AddClient(&entity.Client{FirmID: firm.ID, Name: "Ferretería López", RNC: "130123454"}),
		b:     s.AddClient(&entity.Client{FirmID: firm.ID, Name: "Colmado Juan", RNC: "101001747"}),
	}
	f.uc = NewReportUseCase(s.Invoices(), s.Clients(), s.Users(), s.Firms(), nil)
	f.uc.now = func() time.Time { return now }
	return f
}

func (f *reportFixture) add(c *entity.Client, total string, created time.Time) {
	id := c.ID
	f.store.AddInvoice(&entity.Invoice{
		FirmID:         f.admin.FirmID,
		ClientID:       &id,
		ClientName:     c.Name,
		Fecha:          &created,
		TotalFacturado: d(total),
		Status:         entity.InvoiceStatusOK,
		CreatedAt:      created,
	})
}

func TestStats_Mes(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	f := newReportFixture(now)
	f.add(f.a, "100.10", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC))
	f.add(f.a, "50", time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC))
	f.add(f.b, "300", time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC))
	f.add(f.b, "10", time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC))
	f.add(f.b, "10", time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC))
	f.add(f.b, "999", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	st, err := f.uc.Stats(context.Background(), f.admin, dto.StatsQuery{})
	require.NoError(t, err)

	assert.Equal(t, 3, st.TotalInvoices)
	assert.Equal(t, "450.1", st.TotalAmount.String())
	assert.Equal(t, "150.03", st.AverageAmount.String())
	assert.Equal(t, 3, st.ThisPeriod)
	assert.Equal(t, 2, st.LastPeriod)
	assert.Equal(t, 50.0, st.Growth)

	require.Len(t, st.TopClients, 2)
	assert.Equal(t, "Colmado Juan", st.TopClients[0].Name)
	assert.Equal(t, 1, st.TopClients[0].Count)
	assert.Equal(t, "Ferretería López", st.TopClients[1].Name)
	assert.Equal(t, "150.1", st.TopClients[1].Amount.String())

	require.Len(t, st.MonthlyBreakdown, 1)
	assert.Equal(t, "Octubre", st.MonthlyBreakdown[0].Month)
}

func TestStats_AnioDesgloseUltimosTresMeses(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	f := newReportFixture(now)
	for m := time.May; m <= time.October; m++ {
		f.add(f.a, "10", time.Date(2026, m, 3, 0, 0, 0, 0, time.UTC))
	}

	st, err := f.uc.Stats(context.Background(), f.admin, dto.StatsQuery{Period: PeriodYear, ClientID: f.a.ID})
	require.NoError(t, err)
	assert.Equal(t, 6, st.TotalInvoices)
	assert.Zero(t, st.Growth)
	require.Len(t, st.MonthlyBreakdown, 3)
	assert.Equal(t, []string{"Agosto", "Septiembre", "Octubre"}, []string{
		st.MonthlyBreakdown[0].Month, st.MonthlyBreakdown[1].Month, st.MonthlyBreakdown[2].Month,
	})
}

func TestExport606CSV_NombreDeArchivo(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	f := newReportFixture(now)
	f.add(f.a, "118", time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))
	f.add(f.b, "50", time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC))

	name, data, err := f.uc.Export606CSV(context.Background(), f.admin, dto.InvoiceQuery{From: "2026-09-01", To: "2026-09-30", ClientID: f.a.ID})
	require.NoError(t, err)
	assert.Equal(t, "606_Ferreter_a_L_pez_septiembre_2026.csv", name)

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	name, _, err = f.uc.Export606CSV(context.Background(), f.admin, dto.InvoiceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "606_octubre_2026.csv", name)
}

func TestBuild606_Totales(t *testing.T) {
	f := newReportFixture(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	f.add(f.a, "118", time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))
	f.add(f.b, "50.50", time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC))

	rep, err := f.uc.Build606(context.Background(), f.admin, dto.InvoiceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Contadores SRL", rep.FirmName)
	assert.Equal(t, "Octubre 2026", rep.Period)
	assert.Len(t, rep.Rows, 2)
	assert.Equal(t, "168.5", rep.Totals.TotalFacturado.String())
}

func TestExport606PDF_SinRenderer(t *testing.T) {
	f := newReportFixture(time.Now())
	_, _, err := f.uc.Export606PDF(context.Background(), f.admin, dto.InvoiceQuery{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
