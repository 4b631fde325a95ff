package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invosell/factura-api/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func lineaBase() entity.DocumentLine {
	return entity.DocumentLine{
		Code:        "8399000000000",
		Detail:      "Servicio profesional",
		Unit:        "Sp",
		Quantity:    dec("1"),
		UnitPrice:   dec("50000"),
		TaxCode:     "01",
		TaxRateCode: "08",
		TaxRate:     dec("13"),
	}
}

// ─────────────────────────────────────────────
// CalculateLine
// ─────────────────────────────────────────────

func TestCalculateLine_IVAGeneral(t *testing.T) {
	line := lineaBase()
	require.NoError(t, CalculateLine(&line))

	assert.True(t, line.TaxableBase.Equal(dec("50000")), "base = %s", line.TaxableBase)
	assert.True(t, line.TaxAmount.Equal(dec("6500")), "impuesto = %s", line.TaxAmount)
	assert.True(t, line.Exempted.IsZero())
	assert.True(t, line.Total.Equal(dec("56500")), "total = %s", line.Total)
}

func TestCalculateLine_ExoneracionTotal(t *testing.T) {
	line := lineaBase()
	line.Exemption = &entity.Exemption{
		DocType:    "03",
		DocNumber:  "AL-00123",
		Issuer:     "Ministerio de Hacienda",
		Percentage: dec("100"),
	}
	require.NoError(t, CalculateLine(&line))

	// el impuesto nominal se conserva como monto exonerado
	assert.True(t, line.TaxAmount.IsZero(), "impuesto neto = %s", line.TaxAmount)
	assert.True(t, line.Exempted.Equal(dec("6500")), "exonerado = %s", line.Exempted)
	assert.True(t, line.Total.Equal(dec("50000")), "total = %s", line.Total)
}

func TestCalculateLine_ExoneracionSinPorcentaje_AsumeTotal(t *testing.T) {
	line := lineaBase()
	line.Exemption = &entity.Exemption{DocType: "03", DocNumber: "AL-00123"}
	require.NoError(t, CalculateLine(&line))

	assert.True(t, line.TaxAmount.IsZero())
	assert.True(t, line.Exempted.Equal(dec("6500")))
}

func TestCalculateLine_ExoneracionParcial(t *testing.T) {
	line := lineaBase()
	line.Exemption = &entity.Exemption{DocType: "03", DocNumber: "AL-00123", Percentage: dec("50")}
	require.NoError(t, CalculateLine(&line))

	assert.True(t, line.TaxAmount.Equal(dec("3250")), "impuesto neto = %s", line.TaxAmount)
	assert.True(t, line.Exempted.Equal(dec("3250")))
	assert.True(t, line.Total.Equal(dec("53250")))
}

func TestCalculateLine_ConDescuento(t *testing.T) {
	line := lineaBase()
	line.Quantity = dec("2")
	line.UnitPrice = dec("10000")
	line.Discount = dec("2000")
	require.NoError(t, CalculateLine(&line))

	assert.True(t, line.TaxableBase.Equal(dec("18000")))
	assert.True(t, line.TaxAmount.Equal(dec("2340")))
	assert.True(t, line.Total.Equal(dec("20340")))
}

func TestCalculateLine_Errores(t *testing.T) {
	casos := []struct {
		nombre string
		mutar  func(*entity.DocumentLine)
	}{
		{"cantidad cero", func(l *entity.DocumentLine) { l.Quantity = decimal.Zero }},
		{"cantidad negativa", func(l *entity.DocumentLine) { l.Quantity = dec("-1") }},
		{"precio negativo", func(l *entity.DocumentLine) { l.UnitPrice = dec("-5") }},
		{"descuento negativo", func(l *entity.DocumentLine) { l.Discount = dec("-5") }},
		{"descuento mayor que la línea", func(l *entity.DocumentLine) { l.Discount = dec("99999999") }},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			line := lineaBase()
			c.mutar(&line)
			err := CalculateLine(&line)
			assert.ErrorIs(t, err, ErrInvalidLine)
		})
	}
}

// ─────────────────────────────────────────────
// CalculateDocument
// ─────────────────────────────────────────────

func TestCalculateDocument_MezclaGravadoYExonerado(t *testing.T) {
	gravada := lineaBase()
	exonerada := lineaBase()
	exonerada.UnitPrice = dec("20000")
	exonerada.Exemption = &entity.Exemption{DocType: "03", DocNumber: "AL-1", Percentage: dec("100")}

	doc := &entity.Document{Lines: []entity.DocumentLine{gravada, exonerada}}
	require.NoError(t, CalculateDocument(doc))

	t2 := TotalsOf(doc)
	assert.True(t, t2.TotalGravado.Equal(dec("50000")), "gravado = %s", t2.TotalGravado)
	assert.True(t, t2.TotalExento.Equal(dec("20000")), "exento = %s", t2.TotalExento)
	assert.True(t, t2.TotalVenta.Equal(dec("70000")))
	assert.True(t, t2.TotalImpuesto.Equal(dec("6500")))
	assert.True(t, t2.TotalExonerado.Equal(dec("2600")))
	assert.True(t, t2.TotalComprobante.Equal(dec("76500")))

	assert.True(t, doc.GrandTotal.Equal(dec("76500")))
	assert.True(t, doc.ExemptedTotal.Equal(dec("2600")))
	assert.Equal(t, 1, doc.Lines[0].LineNumber)
	assert.Equal(t, 2, doc.Lines[1].LineNumber)
}

func TestCalculateDocument_SinLineas(t *testing.T) {
	err := CalculateDocument(&entity.Document{})
	assert.ErrorIs(t, err, ErrInvalidLine)
}
