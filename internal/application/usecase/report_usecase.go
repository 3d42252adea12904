package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/internal/domain"
	"github.com/contablebot/portal-api/internal/domain/entity"
	"github.com/contablebot/portal-api/internal/domain/repository"
)

const (
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"

	topClientsN      = 5
	breakdownMonths  = 3
	sinClienteNombre = "Sin cliente"
)

var (
	monthNames = [12]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
	hundred = decimal.NewFromInt(100)
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// MonthName devuelve el nombre del mes en español; title=true lo capitaliza.
func MonthName(m time.Month, title bool) string {
	name := monthNames[m-1]
	if title {
		return cases.Title(language.Spanish).String(name)
	}
	return name
}

// ReportUseCase genera estadísticas y el formato 606 de compras.
type ReportUseCase struct {
	invoices repository.InvoiceRepository
	clients  repository.ClientRepository
	users    repository.UserRepository
	firms    repository.FirmRepository
	pdf      ports.Report606Renderer
	now      func() time.Time
}

// NewReportUseCase construye el caso de uso. pdf puede ser nil si no se exporta PDF.
func NewReportUseCase(
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	users repository.UserRepository,
	firms repository.FirmRepository,
	pdf ports.Report606Renderer,
) *ReportUseCase {
	return &ReportUseCase{invoices: invoices, clients: clients, users: users, firms: firms, pdf: pdf, now: time.Now}
}

// Stats calcula las estadísticas del período (por created_at) y lo compara con el
// período anterior de igual duración.
func (uc *ReportUseCase) Stats(ctx context.Context, a Actor, q dto.StatsQuery) (*dto.ReportStats, error) {
	start, lastStart, err := periodBounds(q.Period, uc.now())
	if err != nil {
		return nil, err
	}
	base, empty, err := buildInvoiceFilter(ctx, uc.users, a, dto.InvoiceQuery{ClientID: q.ClientID})
	if err != nil {
		return nil, err
	}
	stats := &dto.ReportStats{
		TotalAmount:      decimal.Zero,
		AverageAmount:    decimal.Zero,
		TopClients:       []dto.ClientTotal{},
		MonthlyBreakdown: []dto.MonthTotal{},
	}
	if empty {
		return stats, nil
	}

	current := base
	current.CreatedFrom = &start
	list, err := uc.invoices.List(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("estadísticas: período actual: %w", err)
	}
	previous := base
	previous.CreatedFrom = &lastStart
	previous.CreatedTo = &start
	lastCount, err := uc.invoices.Count(ctx, previous)
	if err != nil {
		return nil, fmt.Errorf("estadísticas: período anterior: %w", err)
	}

	total := decimal.Zero
	for _, inv := range list {
		total = total.Add(inv.TotalFacturado)
	}
	stats.TotalInvoices = len(list)
	stats.TotalAmount = total.Round(2)
	if len(list) > 0 {
		stats.AverageAmount = total.Div(decimal.NewFromInt(int64(len(list)))).Round(2)
	}
	stats.ThisPeriod = len(list)
	stats.LastPeriod = lastCount
	if lastCount > 0 {
		diff := decimal.NewFromInt(int64(stats.ThisPeriod - lastCount))
		stats.Growth = diff.Div(decimal.NewFromInt(int64(lastCount))).Mul(hundred).Round(1).InexactFloat64()
	}
	stats.TopClients = topClients(list, topClientsN)
	stats.MonthlyBreakdown = monthlyBreakdown(list, breakdownMonths)
	return stats, nil
}

// periodBounds devuelve el inicio del período actual y del anterior.
func periodBounds(period string, now time.Time) (start, lastStart time.Time, err error) {
	months := 0
	switch period {
	case "", PeriodMonth:
		months = 1
	case PeriodQuarter:
		months = 3
	case PeriodYear:
		months = 12
	default:
		return start, lastStart, domain.NewUserError(domain.ErrInvalidInput, "Período inválido: use month, quarter o year")
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if months == 1 {
		return first, first.AddDate(0, -1, 0), nil
	}
	start = first.AddDate(0, -months, 0)
	return start, first.AddDate(0, -2*months, 0), nil
}

func topClients(list []*entity.Invoice, n int) []dto.ClientTotal {
	byKey := make(map[string]*dto.ClientTotal)
	for _, inv := range list {
		name := inv.ClientName
		if name == "" {
			name = sinClienteNombre
		}
		key := "name_" + name
		if inv.ClientID != nil {
			key = "id_" + strconv.FormatInt(*inv.ClientID, 10)
		}
		ct, ok := byKey[key]
		if !ok {
			ct = &dto.ClientTotal{Name: name, Amount: decimal.Zero}
			byKey[key] = ct
		}
		ct.Count++
		ct.Amount = ct.Amount.Add(inv.TotalFacturado)
	}
	out := make([]dto.ClientTotal, 0, len(byKey))
	for _, ct := range byKey {
		ct.Amount = ct.Amount.Round(2)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func monthlyBreakdown(list []*entity.Invoice, n int) []dto.MonthTotal {
	type bucket struct {
		month time.Month
		count int
		total decimal.Decimal
	}
	byKey := make(map[string]*bucket)
	for _, inv := range list {
		d := inv.CreatedAt
		if d.IsZero() {
			if inv.Fecha == nil {
				continue
			}
			d = *inv.Fecha
		}
		key := d.Format("2006-01")
		b, ok := byKey[key]
		if !ok {
			b = &bucket{month: d.Month(), total: decimal.Zero}
			byKey[key] = b
		}
		b.count++
		b.total = b.total.Add(inv.TotalFacturado)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	out := make([]dto.MonthTotal, 0, len(keys))
	for _, k := range keys {
		b := byKey[k]
		out = append(out, dto.MonthTotal{Month: MonthName(b.month, true), Count: b.count, Amount: b.total.Round(2)})
	}
	return out
}

// Build606 arma el reporte 606 con las facturas del filtro.
func (uc *ReportUseCase) Build606(ctx context.Context, a Actor, q dto.InvoiceQuery) (*dto.Report606, error) {
	f, empty, err := buildInvoiceFilter(ctx, uc.users, a, q)
	if err != nil {
		return nil, err
	}
	report := &dto.Report606{Rows: []dto.Row606{}}

	firm, err := uc.firms.GetByID(ctx, a.FirmID)
	if err != nil {
		return nil, fmt.Errorf("obtener firma: %w", err)
	}
	if firm != nil {
		report.FirmName = firm.Name
	}
	if q.ClientID > 0 {
		c, err := uc.clients.GetByID(ctx, a.FirmID, q.ClientID)
		if err != nil {
			return nil, fmt.Errorf("obtener cliente: %w", err)
		}
		if c != nil {
			report.ClientName = c.Name
		}
	}

	ref := uc.now()
	if f.From != nil {
		ref = *f.From
	}
	report.Period = MonthName(ref.Month(), true) + " " + strconv.Itoa(ref.Year())
	parts := []string{"606"}
	if report.ClientName != "" {
		parts = append(parts, sanitizeFilePart(report.ClientName))
	}
	parts = append(parts, MonthName(ref.Month(), false), strconv.Itoa(ref.Year()))
	report.Filename = strings.Join(parts, "_")

	if !empty {
		list, err := uc.invoices.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("listar facturas 606: %w", err)
		}
		for _, inv := range list {
			report.Rows = append(report.Rows, Row606From(inv))
		}
	}
	report.Totals = sum606(report.Rows)
	return report, nil
}

// Export606CSV devuelve el 606 como CSV UTF-8 con BOM (legible por Excel).
func (uc *ReportUseCase) Export606CSV(ctx context.Context, a Actor, q dto.InvoiceQuery) (string, []byte, error) {
	report, err := uc.Build606(ctx, a, q)
	if err != nil {
		return "", nil, err
	}
	data, err := Encode606CSV(report)
	if err != nil {
		return "", nil, err
	}
	return report.Filename + ".csv", data, nil
}

// Export606PDF devuelve el 606 en PDF.
func (uc *ReportUseCase) Export606PDF(ctx context.Context, a Actor, q dto.InvoiceQuery) (string, []byte, error) {
	if uc.pdf == nil {
		return "", nil, domain.NewUserError(domain.ErrConflict, "La exportación PDF no está disponible")
	}
	report, err := uc.Build606(ctx, a, q)
	if err != nil {
		return "", nil, err
	}
	data, err := uc.pdf.Render606(report)
	if err != nil {
		return "", nil, fmt.Errorf("generar PDF 606: %w", err)
	}
	return report.Filename + ".pdf", data, nil
}

// Encode606CSV serializa el reporte: encabezados, una fila por factura.
func Encode606CSV(report *dto.Report606) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(dto.Columns606); err != nil {
		return nil, err
	}
	for _, r := range report.Rows {
		rec := []string{r.RNC, r.Fecha, r.NombreCompania, r.NCF, r.Materiales}
		for _, amt := range r.Amounts() {
			rec = append(rec, amt.StringFixed(2))
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Row606From convierte una factura en fila 606. Los totales ausentes se derivan de
// sus componentes; la propina cae a la propina legal.
func Row606From(inv *entity.Invoice) dto.Row606 {
	r := dto.Row606{
		RNC:                    inv.RNC,
		NCF:                    inv.NCF,
		NombreCompania:         inv.NombreCompania,
		Materiales:             inv.Materiales,
		MontoServicioExento:    val(inv.MontoServicioExento),
		MontoBienExento:        val(inv.MontoBienExento),
		MontoServicioGravado:   val(inv.MontoServicioGravado),
		MontoBienGravado:       val(inv.MontoBienGravado),
		ITBISServicios:         val(inv.ITBISServicios),
		ITBISBienes:            val(inv.ITBISBienes),
		ITBISServiciosRetenido: val(inv.ITBISServiciosRetenido),
		Retencion30ITBIS:       val(inv.Retencion30ITBIS),
		Retencion10:            val(inv.Retencion10),
		Retencion2:             val(inv.Retencion2),
		TotalFacturado:         inv.TotalFacturado,
		TotalACobrar:           val(inv.TotalACobrar),
	}
	if r.NombreCompania == "" {
		r.NombreCompania = inv.ClientName
	}
	if inv.Fecha != nil {
		r.Fecha = inv.Fecha.Format(dateLayout)
	}
	r.TotalMontosExento = valOr(inv.TotalMontosExento, r.MontoServicioExento.Add(r.MontoBienExento))
	r.TotalMontosGravado = valOr(inv.TotalMontosGravado, r.MontoServicioGravado.Add(r.MontoBienGravado))
	r.TotalFacturadoITBIS = valOr(inv.TotalFacturadoITBIS, r.ITBISServicios.Add(r.ITBISBienes))
	r.Propina = valOr(inv.Propina, val(inv.PropinaLegal))
	return r
}

func sum606(rows []dto.Row606) dto.Row606 {
	var t dto.Row606
	for _, r := range rows {
		t.MontoServicioExento = t.MontoServicioExento.Add(r.MontoServicioExento)
		t.MontoBienExento = t.MontoBienExento.Add(r.MontoBienExento)
		t.TotalMontosExento = t.TotalMontosExento.Add(r.TotalMontosExento)
		t.MontoServicioGravado = t.MontoServicioGravado.Add(r.MontoServicioGravado)
		t.MontoBienGravado = t.MontoBienGravado.Add(r.MontoBienGravado)
		t.TotalMontosGravado = t.TotalMontosGravado.Add(r.TotalMontosGravado)
		t.ITBISServicios = t.ITBISServicios.Add(r.ITBISServicios)
		t.ITBISBienes = t.ITBISBienes.Add(r.ITBISBienes)
		t.TotalFacturadoITBIS = t.TotalFacturadoITBIS.Add(r.TotalFacturadoITBIS)
		t.ITBISServiciosRetenido = t.ITBISServiciosRetenido.Add(r.ITBISServiciosRetenido)
		t.Retencion30ITBIS = t.Retencion30ITBIS.Add(r.Retencion30ITBIS)
		t.Retencion10 = t.Retencion10.Add(r.Retencion10)
		t.Retencion2 = t.Retencion2.Add(r.Retencion2)
		t.Propina = t.Propina.Add(r.Propina)
		t.TotalFacturado = t.TotalFacturado.Add(r.TotalFacturado)
		t.TotalACobrar = t.TotalACobrar.Add(r.TotalACobrar)
	}
	return t
}

func val(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}

func valOr(d decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return fallback
}

// sanitizeFilePart reemplaza todo lo que no sea letra o dígito ASCII por "_".
func sanitizeFilePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
