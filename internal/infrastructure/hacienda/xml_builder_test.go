package hacienda

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invosell/factura-api/internal/domain/entity"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func claveFixture(t *testing.T, docType, consecutive string) string {
	t.Helper()
	clave, err := pkghacienda.GenerateClave(pkghacienda.ClaveParams{
		Country:      "506",
		Date:         time.Date(2026, 3, 14, 0, 0, 0, 0, CostaRica),
		IssuerID:     "3101123456",
		DocType:      docType,
		Consecutive:  consecutive,
		Situation:    "1",
		SecurityCode: "12345678",
	})
	require.NoError(t, err)
	return clave
}

func emisorFixture() *entity.Company {
	return &entity.Company{
		ID:           "co-1",
		Name:         "Servicios Ticos S.A.",
		TradeName:    "ServiTicos",
		IDType:       "02",
		Cedula:       "3101123456",
		Email:        "facturas@serviticos.cr",
		Province:     "1",
		Canton:       "01",
		District:     "01",
		Address:      "Avenida Central, San José",
		EconomicCode: "620100",
	}
}

func receptorFixture() *entity.Client {
	return &entity.Client{
		ID:     "cl-1",
		Name:   "Cliente Uno",
		IDType: "01",
		Cedula: "112340567",
		Email:  "cliente@example.com",
	}
}

func facturaFixture(t *testing.T) *entity.Document {
	return &entity.Document{
		ID:          "doc-1",
		CompanyID:   "co-1",
		ClientID:    "cl-1",
		DocType:     pkghacienda.DocTypeFactura,
		Consecutive: "FE-0000000151",
		Clave:       claveFixture(t, "01", "FE-0000000151"),
		Date:        time.Date(2026, 3, 14, 10, 30, 0, 0, CostaRica),
		Currency:    "CRC",
		Exchange:    dec("1"),

		Subtotal:   dec("50000"),
		TaxTotal:   dec("6500"),
		GrandTotal: dec("56500"),

		Lines: []entity.DocumentLine{{
			LineNumber:  1,
			Code:        "8399000000000",
			Detail:      "Servicio profesional",
			Unit:        "Sp",
			Quantity:    dec("1"),
			UnitPrice:   dec("50000"),
			TaxCode:     "01",
			TaxRateCode: "08",
			TaxRate:     dec("13"),
			TaxableBase: dec("50000"),
			TaxAmount:   dec("6500"),
			Total:       dec("56500"),
		}},
	}
}

// ─────────────────────────────────────────────
// Estructura del comprobante
// ─────────────────────────────────────────────

func TestBuild_FacturaElectronica(t *testing.T) {
	doc := facturaFixture(t)
	out, err := NewXMLBuilder().Build(&BuildContext{
		Document:          doc,
		Company:           emisorFixture(),
		Client:            receptorFixture(),
		ProveedorSistemas: "3101999999",
	})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<FacturaElectronica xmlns="`+NsFactura+`"`)
	assert.Contains(t, xml, "<Clave>"+doc.Clave+"</Clave>")
	assert.Contains(t, xml, "<ProveedorSistemas>3101999999</ProveedorSistemas>")
	assert.Contains(t, xml, "<CodigoActividadEmisor>620100</CodigoActividadEmisor>")
	assert.Contains(t, xml, "<NumeroConsecutivo>"+doc.Clave[21:41]+"</NumeroConsecutivo>")
	assert.Contains(t, xml, "<FechaEmision>2026-03-14T10:30:00-06:00</FechaEmision>")
	assert.Contains(t, xml, "<Nombre>Servicios Ticos S.A.</Nombre>")
	assert.Contains(t, xml, "<NombreComercial>ServiTicos</NombreComercial>")
	assert.Contains(t, xml, "<Receptor>")
	assert.Contains(t, xml, "<Nombre>Cliente Uno</Nombre>")
	assert.Contains(t, xml, "<CondicionVenta>01</CondicionVenta>")
	assert.Contains(t, xml, "<CodigoCAByS>8399000000000</CodigoCAByS>")
	assert.Contains(t, xml, "<CodigoTarifaIVA>08</CodigoTarifaIVA>")
	assert.Contains(t, xml, "<MontoTotalLinea>56500</MontoTotalLinea>")
	assert.Contains(t, xml, "<TotalComprobante>56500</TotalComprobante>")
	assert.NotContains(t, xml, "<InformacionReferencia>")
}

func TestBuild_EsDeterminista(t *testing.T) {
	ctx := &BuildContext{Document: facturaFixture(t), Company: emisorFixture(), Client: receptorFixture()}
	b := NewXMLBuilder()

	primero, err := b.Build(ctx)
	require.NoError(t, err)
	segundo, err := b.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, primero, segundo)
}

func TestBuild_TiqueteSinReceptor(t *testing.T) {
	doc := facturaFixture(t)
	doc.DocType = pkghacienda.DocTypeTiquete
	doc.ClientID = ""
	doc.Consecutive = "TIQ-0000000009"
	doc.Clave = claveFixture(t, "02", "TIQ-0000000009")

	out, err := NewXMLBuilder().Build(&BuildContext{Document: doc, Company: emisorFixture()})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<TiqueteElectronico xmlns="`+NsTiquete+`"`)
	assert.NotContains(t, xml, "<Receptor>")
}

func TestBuild_NotaCreditoConReferencia(t *testing.T) {
	claveFactura := claveFixture(t, "01", "FE-0000000151")
	doc := facturaFixture(t)
	doc.DocType = pkghacienda.DocTypeNotaCredito
	doc.Consecutive = "NC-0000000007"
	doc.Clave = claveFixture(t, "03", "NC-0000000007")
	doc.Reference = &entity.Reference{
		DocType: "01",
		Clave:   claveFactura,
		Code:    "01",
		Reason:  "Anulación de la factura",
		Date:    time.Date(2026, 3, 10, 9, 0, 0, 0, CostaRica),
	}

	out, err := NewXMLBuilder().Build(&BuildContext{Document: doc, Company: emisorFixture(), Client: receptorFixture()})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<NotaCreditoElectronica xmlns="`+NsNotaCredito+`"`)
	assert.Contains(t, xml, "<TipoDocIR>01</TipoDocIR>")
	assert.Contains(t, xml, "<Numero>"+claveFactura+"</Numero>")
	assert.Contains(t, xml, "<FechaEmisionIR>2026-03-10T09:00:00-06:00</FechaEmisionIR>")
	assert.Contains(t, xml, "<Codigo>01</Codigo>")
	assert.Contains(t, xml, "<Razon>Anulación de la factura</Razon>")

	// la referencia va después del resumen
	assert.Less(t, strings.Index(xml, "<ResumenFactura>"), strings.Index(xml, "<InformacionReferencia>"))
}

func TestBuild_NotaSinReferenciaFalla(t *testing.T) {
	doc := facturaFixture(t)
	doc.DocType = pkghacienda.DocTypeNotaCredito
	doc.Reference = nil

	_, err := NewXMLBuilder().Build(&BuildContext{Document: doc, Company: emisorFixture()})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────
// Exoneración y resumen
// ─────────────────────────────────────────────

func TestBuild_LineaExonerada(t *testing.T) {
	doc := facturaFixture(t)
	line := &doc.Lines[0]
	line.TaxAmount = dec("0")
	line.Exempted = dec("6500")
	line.Total = dec("50000")
	line.Exemption = &entity.Exemption{
		DocType:    "03",
		DocNumber:  "AL-00123",
		Issuer:     "Ministerio de Hacienda",
		IssueDate:  time.Date(2025, 1, 15, 0, 0, 0, 0, CostaRica),
		Percentage: dec("100"),
	}
	doc.TaxTotal = dec("0")
	doc.ExemptedTotal = dec("6500")
	doc.GrandTotal = dec("50000")

	out, err := NewXMLBuilder().Build(&BuildContext{Document: doc, Company: emisorFixture(), Client: receptorFixture()})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, "<Exoneracion>")
	assert.Contains(t, xml, "<TipoDocumentoEX1>03</TipoDocumentoEX1>")
	assert.Contains(t, xml, "<NumeroDocumento>AL-00123</NumeroDocumento>")
	assert.Contains(t, xml, "<TarifaExonerada>13</TarifaExonerada>")
	assert.Contains(t, xml, "<MontoExoneracion>6500</MontoExoneracion>")
	// el monto del impuesto refleja la tarifa nominal, el neto queda en cero
	assert.Contains(t, xml, "<Monto>6500</Monto>")
	assert.Contains(t, xml, "<ImpuestoNeto>0</ImpuestoNeto>")
	assert.Contains(t, xml, "<TotalExonerado>6500</TotalExonerado>")
}

func TestBuild_ExoneracionPorLeyEspecialEmiteTodosLosCampos(t *testing.T) {
	doc := facturaFixture(t)
	line := &doc.Lines[0]
	line.TaxAmount = dec("0")
	line.Exempted = dec("6500")
	line.Total = dec("50000")
	line.Exemption = &entity.Exemption{
		DocType:      "99",
		DocTypeOther: "Ley de Zonas Francas",
		DocNumber:    "DGH-057-2025",
		LawName:      "Ley 7210",
		Article:      20,
		Subsection:   3,
		Issuer:       "99",
		IssuerOther:  "PROCOMER",
		IssueDate:    time.Date(2025, 1, 15, 0, 0, 0, 0, CostaRica),
		Percentage:   dec("100"),
		PurchasePct:  dec("100"),
	}
	doc.TaxTotal = dec("0")
	doc.ExemptedTotal = dec("6500")
	doc.GrandTotal = dec("50000")

	out, err := NewXMLBuilder().Build(&BuildContext{Document: doc, Company: emisorFixture(), Client: receptorFixture()})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, "<TipoDocumentoEX1>99</TipoDocumentoEX1>")
	assert.Contains(t, xml, "<TipoDocumentoOTRO>Ley de Zonas Francas</TipoDocumentoOTRO>")
	assert.Contains(t, xml, "<Articulo>20</Articulo>")
	assert.Contains(t, xml, "<Inciso>3</Inciso>")
	assert.Contains(t, xml, "<NombreInstitucionOtros>PROCOMER</NombreInstitucionOtros>")
	// Artículo e Inciso van entre el número de documento y la institución
	assert.Less(t, strings.Index(xml, "<NumeroDocumento>"), strings.Index(xml, "<Articulo>"))
	assert.Less(t, strings.Index(xml, "<Articulo>"), strings.Index(xml, "<Inciso>"))
	assert.Less(t, strings.Index(xml, "<Inciso>"), strings.Index(xml, "<NombreInstitucion>"))
}

func TestBuild_ResumenClasificaServiciosYMercancias(t *testing.T) {
	doc := facturaFixture(t)
	doc.Lines = append(doc.Lines, entity.DocumentLine{
		LineNumber:  2,
		Code:        "2100000000000",
		Detail:      "Mercancía exenta",
		Unit:        "Unid",
		Quantity:    dec("2"),
		UnitPrice:   dec("1000"),
		TaxableBase: dec("2000"),
		Total:       dec("2000"),
	})
	doc.GrandTotal = dec("58500")

	out, err := NewXMLBuilder().Build(&BuildContext{Document: doc, Company: emisorFixture(), Client: receptorFixture()})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, "<TotalServGravados>50000</TotalServGravados>")
	assert.Contains(t, xml, "<TotalServExentos>0</TotalServExentos>")
	assert.Contains(t, xml, "<TotalMercanciasGravadas>0</TotalMercanciasGravadas>")
	assert.Contains(t, xml, "<TotalMercanciasExentas>2000</TotalMercanciasExentas>")
	assert.Contains(t, xml, "<TotalGravado>50000</TotalGravado>")
	assert.Contains(t, xml, "<TotalExento>2000</TotalExento>")
	assert.Contains(t, xml, "<TotalVenta>52000</TotalVenta>")
	assert.NotContains(t, xml, "<TotalExonerado>")
}

func TestBuild_MonedaPorDefectoYMedioPago(t *testing.T) {
	doc := facturaFixture(t)
	doc.Currency = ""
	doc.Exchange = decimal.Zero

	out, err := NewXMLBuilder().Build(&BuildContext{
		Document:     doc,
		Company:      emisorFixture(),
		Client:       receptorFixture(),
		PaymentMeans: "04",
	})
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, "<CodigoMoneda>CRC</CodigoMoneda>")
	assert.Contains(t, xml, "<TipoCambio>1</TipoCambio>")
	assert.Contains(t, xml, "<TipoMedioPago>04</TipoMedioPago>")
}

// ─────────────────────────────────────────────
// Validaciones de entrada
// ─────────────────────────────────────────────

func TestBuild_Errores(t *testing.T) {
	b := NewXMLBuilder()
	emisor := emisorFixture()

	_, err := b.Build(nil)
	assert.Error(t, err)

	sinClave := facturaFixture(t)
	sinClave.Clave = ""
	_, err = b.Build(&BuildContext{Document: sinClave, Company: emisor})
	assert.Error(t, err)

	tipoRaro := facturaFixture(t)
	tipoRaro.DocType = "99"
	_, err = b.Build(&BuildContext{Document: tipoRaro, Company: emisor})
	assert.Error(t, err)

	sinLineas := facturaFixture(t)
	sinLineas.Lines = nil
	_, err = b.Build(&BuildContext{Document: sinLineas, Company: emisor})
	assert.Error(t, err)
}
