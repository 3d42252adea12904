// Package pdf genera la versión imprimible del reporte 606 de compras.
//
// Layout de la página A4 horizontal:
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│  HEADER: Firma + Cliente        │  Formato 606 + Período         │
//	│  ──────────────────────────────────────────────────────────────  │
//	│  TABLA: RNC | Fecha | Compañía | NCF | Gravado | ITBIS | Total   │
//	│  ──────────────────────────────────────────────────────────────  │
//	│  TOTALES: suma de cada columna numérica                          │
//	└──────────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/pkg/rnc"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ ports.Report606Renderer = (*Report606PDF)(nil)

// Report606PDF implementa ports.Report606Renderer con Maroto v2.
type Report606PDF struct{}

// NewReport606PDF construye el generador.
func NewReport606PDF() *Report606PDF { return &Report606PDF{} }

// column columna visible de la tabla (la grilla de maroto suma 12).
type column struct {
	label string
	size  int
	align align.Type
	value func(dto.Row606) string
}

var columns = []column{
	{"RNC", 2, align.Left, func(r dto.Row606) string { return rnc.FormatCompact(r.RNC) }},
	{"Fecha", 1, align.Center, func(r dto.Row606) string { return r.Fecha }},
	{"Compañía", 3, align.Left, func(r dto.Row606) string { return r.NombreCompania }},
	{"NCF", 2, align.Left, func(r dto.Row606) string { return r.NCF }},
	{"Gravado", 1, align.Right, func(r dto.Row606) string { return formatMoney(r.TotalMontosGravado) }},
	{"ITBIS", 1, align.Right, func(r dto.Row606) string { return formatMoney(r.TotalFacturadoITBIS) }},
	{"Total facturado", 2, align.Right, func(r dto.Row606) string { return formatMoney(r.TotalFacturado) }},
}

// Render606 genera el PDF y devuelve sus bytes.
func (g *Report606PDF) Render606(report *dto.Report606) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Formato 606 "+report.Period, true).
		WithAuthor(report.FirmName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, r := range report.Rows {
		m.AddRows(detailRow(r))
	}
	if len(report.Rows) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin facturas en el período seleccionado", props.Text{
				Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(report *dto.Report606) core.Row {
	cliente := "Todos los clientes"
	if report.ClientName != "" {
		cliente = "Cliente: " + report.ClientName
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(report.FirmName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(cliente, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("FORMATO 606 - COMPRAS", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(report.Period, props.Text{
				Size: 9, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...)
}

func detailRow(r dto.Row606) core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(c.value(r), props.Text{
			Size: 7.5, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func totalsRow(report *dto.Report606) core.Row {
	t := report.Totals
	bold := func(s string, a align.Type) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1})
	}
	return row.New(8).Add(
		col.New(8).Add(bold(fmt.Sprintf("TOTALES (%d facturas)", len(report.Rows)), align.Right)),
		col.New(1).Add(bold(formatMoney(t.TotalMontosGravado), align.Right)),
		col.New(1).Add(bold(formatMoney(t.TotalFacturadoITBIS), align.Right)),
		col.New(2).Add(bold(formatMoney(t.TotalFacturado), align.Right)),
	)
}

// formatMoney formatea con dos decimales y comas de miles: 1234567.5 → "1,234,567.50".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + "." + frac
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac
}
