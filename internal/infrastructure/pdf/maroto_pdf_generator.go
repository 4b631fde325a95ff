// Package pdf implementa la representación gráfica del comprobante
// electrónico (formato v4.4 de Hacienda).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + Cédula  │  Consecutivo + Fecha       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Email                             │
//	│  RECEPTOR: Nombre + Cédula + contacto                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Detalle | P.Unit | IVA | Total                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Venta neta / Impuesto / TOTAL COMPROBANTE          │
//	│  FOOTER: Clave de 50 dígitos + QR + Leyenda legal            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/invosell/factura-api/internal/domain/entity"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// docTitles título de la representación gráfica por tipo de comprobante.
var docTitles = map[string]string{
	pkghacienda.DocTypeFactura:     "FACTURA ELECTRÓNICA",
	pkghacienda.DocTypeTiquete:     "TIQUETE ELECTRÓNICO",
	pkghacienda.DocTypeNotaCredito: "NOTA DE CRÉDITO ELECTRÓNICA",
	pkghacienda.DocTypeNotaDebito:  "NOTA DE DÉBITO ELECTRÓNICA",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.DocumentPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateDocumentPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDocumentPDF(
	_ context.Context,
	doc *entity.Document,
	company *entity.Company,
	client *entity.Client,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(docTitle(doc.DocType)+" "+doc.Consecutive, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(company))
	m.AddRows(receptorRow(client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	// Tabla de líneas
	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(doc) {
		m.AddRows(r)
	}

	// Totales
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	// Footer con la clave
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range claveFooterRows(doc) {
		m.AddRows(r)
	}

	pdfDoc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return pdfDoc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + cédula (izq) y consecutivo + fecha (der).
func headerRow(doc *entity.Document, company *entity.Company) core.Row {
	fecha := doc.Date.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Cédula: "+company.Cedula, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(docTitle(doc.DocType), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(doc.Consecutive, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// emisorRow: datos del emisor.
func emisorRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(company.Address, "—"),
				nonEmpty(company.Phone, "—"),
				nonEmpty(company.Email, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// receptorRow: datos del receptor. Un tiquete puede no tenerlo.
func receptorRow(client *entity.Client) core.Row {
	if client == nil {
		return row.New(8).Add(col.New(12).Add(
			text.New("RECEPTOR: venta sin receptor identificado", props.Text{
				Size: 8, Color: colorGray, Top: 2,
			}),
		))
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(client.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Cédula: %s   |   Email: %s   |   Tel: %s",
				client.Cedula,
				nonEmpty(client.Email, "—"),
				nonEmpty(client.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Detalle", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Total línea", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea de detalle.
func tableDetailRows(doc *entity.Document) []core.Row {
	sym := currencySymbol(doc.Currency)
	result := make([]core.Row, 0, len(doc.Lines))
	for i := range doc.Lines {
		l := &doc.Lines[i]
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				l.Detail,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				sym+formatMoney(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				l.TaxRate.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				sym+formatMoney(l.Total),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(doc *entity.Document) core.Row {
	sym := currencySymbol(doc.Currency)
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	height := 26
	if doc.ExemptedTotal.IsPositive() {
		height = 32
	}
	labels := []core.Component{label("Venta neta:"), label("Impuesto:")}
	values := []core.Component{
		value(sym + formatMoney(doc.Subtotal)),
		value(sym + formatMoney(doc.TaxTotal)),
	}
	if doc.ExemptedTotal.IsPositive() {
		labels = append(labels, label("Exonerado:"))
		values = append(values, value(sym+formatMoney(doc.ExemptedTotal)))
	}
	labels = append(labels, grandLabel("TOTAL COMPROBANTE:"))
	values = append(values, grandValue(sym+formatMoney(doc.GrandTotal)))

	return row.New(float64(height)).Add(
		col.New(3),
		col.New(3).Add(labels...),
		col.New(3).Add(values...),
		col.New(3),
	)
}

// claveFooterRows: clave de 50 dígitos + código QR + leyenda legal.
func claveFooterRows(doc *entity.Document) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN DEL COMPROBANTE ELECTRÓNICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if doc.Clave != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Clave numérica:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(doc.Clave, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}

	rows = append(rows, row.New(3))

	if doc.Clave != "" {
		rows = append(rows, row.New(40).Add(
			col.New(4).Add(code.NewQr(doc.Clave, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Escanee el código QR para obtener\nla clave del comprobante.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("Autorizado mediante resolución\nDGT-R-48-2016 del Ministerio de Hacienda", props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 20,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Este documento es una representación gráfica del comprobante electrónico "+
				"emitido según el formato v4.4 del Ministerio de Hacienda de Costa Rica. "+
				"Consérvelo como respaldo fiscal.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func docTitle(docType string) string {
	if t, ok := docTitles[docType]; ok {
		return t
	}
	return "COMPROBANTE ELECTRÓNICO"
}

func currencySymbol(currency string) string {
	if currency == "USD" {
		return "$"
	}
	return "₡"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

var moneyPrinter = message.NewPrinter(language.MustParse("es-CR"))

// formatMoney formatea el monto con la agrupación de miles de es-CR.
func formatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return moneyPrinter.Sprintf("%.2f", f)
}
