// Package billing contiene el cálculo de impuestos y totales de comprobantes
// electrónicos, con soporte de exoneraciones por línea.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/invosell/factura-api/internal/domain/entity"
)

// ErrInvalidLine agrupa errores de validación de líneas.
var ErrInvalidLine = errors.New("línea de detalle inválida")

var hundred = decimal.NewFromInt(100)

// CalculateLine completa los montos de una línea a partir de cantidad, precio,
// descuento, tarifa y exoneración. Redondeo a 5 decimales en los intermedios,
// como exige el formato de Hacienda.
//
// Con exoneración total el impuesto neto es 0 y el total de la línea queda en
// la base imponible; el impuesto nominal se conserva como monto exonerado.
func CalculateLine(line *entity.DocumentLine) error {
	if line == nil {
		return fmt.Errorf("%w: línea nula", ErrInvalidLine)
	}
	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: cantidad debe ser positiva", ErrInvalidLine)
	}
	if line.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: precio unitario negativo", ErrInvalidLine)
	}
	if line.Discount.IsNegative() {
		return fmt.Errorf("%w: descuento negativo", ErrInvalidLine)
	}

	gross := line.Quantity.Mul(line.UnitPrice).Round(5)
	if line.Discount.GreaterThan(gross) {
		return fmt.Errorf("%w: descuento (%s) mayor que el monto de la línea (%s)",
			ErrInvalidLine, line.Discount.String(), gross.String())
	}

	base := gross.Sub(line.Discount).Round(5)
	nominal := base.Mul(line.TaxRate).Div(hundred).Round(5)

	exempted := decimal.Zero
	if line.Exemption != nil {
		pct := line.Exemption.Percentage
		if pct.IsZero() || pct.GreaterThan(hundred) {
			pct = hundred
		}
		exempted = nominal.Mul(pct).Div(hundred).Round(5)
	}

	line.TaxableBase = base
	line.Exempted = exempted
	line.TaxAmount = nominal.Sub(exempted).Round(5)
	line.Total = base.Add(line.TaxAmount).Round(5)
	return nil
}

// Totals agrupa los montos de resumen del comprobante, separando ventas
// gravadas y exentas como exige el bloque ResumenFactura.
type Totals struct {
	TotalGravado     decimal.Decimal // monto bruto de líneas con impuesto neto > 0
	TotalExento      decimal.Decimal // monto bruto de líneas sin impuesto neto
	TotalVenta       decimal.Decimal // gravado + exento, antes de descuentos
	TotalDescuentos  decimal.Decimal
	TotalVentaNeta   decimal.Decimal // venta - descuentos
	TotalImpuesto    decimal.Decimal // impuesto neto (post exoneración)
	TotalExonerado   decimal.Decimal
	TotalComprobante decimal.Decimal // venta neta + impuesto
}

// CalculateDocument calcula cada línea y agrega los totales en el documento.
// Una línea exonerada por completo cuenta como venta exenta: su monto pasa a
// TotalExento y el comprobante conserva el valor previo al impuesto.
func CalculateDocument(doc *entity.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: documento nulo", ErrInvalidLine)
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%w: el comprobante debe tener al menos una línea", ErrInvalidLine)
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		line.LineNumber = i + 1
		if err := CalculateLine(line); err != nil {
			return fmt.Errorf("línea %d: %w", i+1, err)
		}
	}

	t := TotalsOf(doc)
	doc.Subtotal = t.TotalVentaNeta
	doc.DiscountTotal = t.TotalDescuentos
	doc.TaxTotal = t.TotalImpuesto
	doc.ExemptedTotal = t.TotalExonerado
	doc.GrandTotal = t.TotalComprobante
	return nil
}

// TotalsOf reconstruye el resumen desde líneas ya calculadas (sin mutarlas).
func TotalsOf(doc *entity.Document) Totals {
	var t Totals
	for i := range doc.Lines {
		line := &doc.Lines[i]
		gross := line.Quantity.Mul(line.UnitPrice).Round(5)
		if line.TaxAmount.IsPositive() {
			t.TotalGravado = t.TotalGravado.Add(gross)
		} else {
			t.TotalExento = t.TotalExento.Add(gross)
		}
		t.TotalDescuentos = t.TotalDescuentos.Add(line.Discount)
		t.TotalImpuesto = t.TotalImpuesto.Add(line.TaxAmount)
		t.TotalExonerado = t.TotalExonerado.Add(line.Exempted)
	}
	t.TotalVenta = t.TotalGravado.Add(t.TotalExento)
	t.TotalVentaNeta = t.TotalVenta.Sub(t.TotalDescuentos)
	t.TotalComprobante = t.TotalVentaNeta.Add(t.TotalImpuesto)
	return t
}
