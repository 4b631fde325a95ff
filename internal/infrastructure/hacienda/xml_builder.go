package hacienda

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invosell/factura-api/internal/domain/entity"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
)

// Namespaces de los esquemas v4.4 de comprobantes electrónicos.
const (
	nsBase = "https://cdn.comprobanteselectronicos.go.cr/xml-schemas/v4.4/"

	NsFactura     = nsBase + "facturaElectronica"
	NsTiquete     = nsBase + "tiqueteElectronico"
	NsNotaCredito = nsBase + "notaCreditoElectronica"
	NsNotaDebito  = nsBase + "notaDebitoElectronica"

	nsDs  = "http://www.w3.org/2000/09/xmldsig#"
	nsXsi = "http://www.w3.org/2001/XMLSchema-instance"
	nsXsd = "http://www.w3.org/2001/XMLSchema"
)

// Los comprobantes se emiten siempre con hora de Costa Rica (UTC-6, sin DST),
// la misma zona con la que se genera la fecha de la clave.
var CostaRica = pkghacienda.CostaRica

// rootElements elemento raíz y namespace por tipo de comprobante.
var rootElements = map[string]struct{ local, ns string }{
	pkghacienda.DocTypeFactura:     {"FacturaElectronica", NsFactura},
	pkghacienda.DocTypeTiquete:     {"TiqueteElectronico", NsTiquete},
	pkghacienda.DocTypeNotaCredito: {"NotaCreditoElectronica", NsNotaCredito},
	pkghacienda.DocTypeNotaDebito:  {"NotaDebitoElectronica", NsNotaDebito},
}

// BuildContext agrupa todo lo necesario para ensamblar el XML de un comprobante.
type BuildContext struct {
	Document          *entity.Document
	Company           *entity.Company
	Client            *entity.Client // nil en tiquetes sin receptor
	ProveedorSistemas string
	SaleCondition     string // "01" contado por defecto
	PaymentMeans      string // "01" efectivo por defecto
}

// XMLBuilder construye el XML v4.4 del comprobante (sin firma XAdES).
// Es determinista: el mismo contexto produce siempre los mismos bytes.
type XMLBuilder struct{}

// NewXMLBuilder crea el ensamblador.
func NewXMLBuilder() *XMLBuilder {
	return &XMLBuilder{}
}

// Build genera el []byte del comprobante según el esquema v4.4 de su tipo.
func (b *XMLBuilder) Build(ctx *BuildContext) ([]byte, error) {
	if ctx == nil || ctx.Document == nil || ctx.Company == nil {
		return nil, fmt.Errorf("hacienda: faltan documento o emisor en el contexto")
	}
	doc := ctx.Document
	rootDef, ok := rootElements[doc.DocType]
	if !ok {
		return nil, fmt.Errorf("hacienda: tipo de comprobante desconocido %q", doc.DocType)
	}
	if doc.Clave == "" {
		return nil, fmt.Errorf("hacienda: el comprobante no tiene clave asignada")
	}
	if (doc.DocType == pkghacienda.DocTypeNotaCredito || doc.DocType == pkghacienda.DocTypeNotaDebito) &&
		doc.Reference == nil {
		return nil, fmt.Errorf("hacienda: una nota requiere InformacionReferencia")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: rootDef.local},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: rootDef.ns},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: nsDs},
			{Name: xml.Name{Local: "xmlns:xsd"}, Value: nsXsd},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	writeEl(enc, "Clave", doc.Clave)
	if ctx.ProveedorSistemas != "" {
		writeEl(enc, "ProveedorSistemas", ctx.ProveedorSistemas)
	}
	if ctx.Company.EconomicCode != "" {
		writeEl(enc, "CodigoActividadEmisor", ctx.Company.EconomicCode)
	}
	writeEl(enc, "NumeroConsecutivo", doc.Clave[21:41])
	writeEl(enc, "FechaEmision", emissionTime(doc.Date).Format("2006-01-02T15:04:05-07:00"))

	b.writeEmisor(enc, ctx.Company)
	if ctx.Client != nil {
		b.writeReceptor(enc, ctx.Client)
	}

	cond := ctx.SaleCondition
	if cond == "" {
		cond = pkghacienda.SaleConditionCash
	}
	writeEl(enc, "CondicionVenta", cond)

	if err := b.writeDetalleServicio(enc, doc); err != nil {
		return nil, err
	}
	b.writeResumen(enc, doc, ctx)

	if doc.Reference != nil {
		b.writeReferencia(enc, doc.Reference, doc.Date)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// emissionTime normaliza la fecha de emisión a la zona de Costa Rica.
// Una fecha sin hora queda a medianoche.
func emissionTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(CostaRica)
}

func (b *XMLBuilder) writeEmisor(enc *xml.Encoder, c *entity.Company) {
	start(enc, "Emisor")
	writeEl(enc, "Nombre", c.Name)
	start(enc, "Identificacion")
	writeEl(enc, "Tipo", c.IDType)
	writeEl(enc, "Numero", c.Cedula)
	end(enc, "Identificacion")
	if c.TradeName != "" {
		writeEl(enc, "NombreComercial", c.TradeName)
	}
	if c.Province != "" {
		start(enc, "Ubicacion")
		writeEl(enc, "Provincia", c.Province)
		writeEl(enc, "Canton", c.Canton)
		writeEl(enc, "Distrito", c.District)
		if c.Address != "" {
			writeEl(enc, "OtrasSenas", c.Address)
		}
		end(enc, "Ubicacion")
	}
	if c.Phone != "" {
		start(enc, "Telefono")
		writeEl(enc, "CodigoPais", "506")
		writeEl(enc, "NumTelefono", c.Phone)
		end(enc, "Telefono")
	}
	if c.Email != "" {
		writeEl(enc, "CorreoElectronico", c.Email)
	}
	end(enc, "Emisor")
}

func (b *XMLBuilder) writeReceptor(enc *xml.Encoder, cl *entity.Client) {
	start(enc, "Receptor")
	writeEl(enc, "Nombre", cl.Name)
	if cl.Cedula != "" {
		start(enc, "Identificacion")
		writeEl(enc, "Tipo", cl.IDType)
		writeEl(enc, "Numero", cl.Cedula)
		end(enc, "Identificacion")
	}
	if cl.Province != "" {
		start(enc, "Ubicacion")
		writeEl(enc, "Provincia", cl.Province)
		writeEl(enc, "Canton", cl.Canton)
		writeEl(enc, "Distrito", cl.District)
		if cl.Address != "" {
			writeEl(enc, "OtrasSenas", cl.Address)
		}
		end(enc, "Ubicacion")
	}
	if cl.Email != "" {
		writeEl(enc, "CorreoElectronico", cl.Email)
	}
	end(enc, "Receptor")
}

func (b *XMLBuilder) writeDetalleServicio(enc *xml.Encoder, doc *entity.Document) error {
	if len(doc.Lines) == 0 {
		return fmt.Errorf("hacienda: el comprobante no tiene líneas")
	}
	start(enc, "DetalleServicio")
	for i := range doc.Lines {
		line := &doc.Lines[i]
		start(enc, "LineaDetalle")
		writeEl(enc, "NumeroLinea", strconv.Itoa(line.LineNumber))
		if line.Code != "" {
			writeEl(enc, "CodigoCAByS", line.Code)
		}
		writeEl(enc, "Cantidad", fmtAmount(line.Quantity))
		writeEl(enc, "UnidadMedida", line.Unit)
		writeEl(enc, "Detalle", line.Detail)
		writeEl(enc, "PrecioUnitario", fmtAmount(line.UnitPrice))
		writeEl(enc, "MontoTotal", fmtAmount(line.Quantity.Mul(line.UnitPrice)))
		if line.Discount.IsPositive() {
			start(enc, "Descuento")
			writeEl(enc, "MontoDescuento", fmtAmount(line.Discount))
			writeEl(enc, "NaturalezaDescuento", "Descuento comercial")
			end(enc, "Descuento")
		}
		writeEl(enc, "SubTotal", fmtAmount(line.TaxableBase))

		if line.TaxRate.IsPositive() {
			nominal := line.TaxAmount.Add(line.Exempted)
			start(enc, "Impuesto")
			writeEl(enc, "Codigo", line.TaxCode)
			writeEl(enc, "CodigoTarifaIVA", line.TaxRateCode)
			writeEl(enc, "Tarifa", fmtAmount(line.TaxRate))
			writeEl(enc, "Monto", fmtAmount(nominal))
			if ex := line.Exemption; ex != nil {
				start(enc, "Exoneracion")
				writeEl(enc, "TipoDocumentoEX1", ex.DocType)
				if ex.DocType == pkghacienda.ExemptionDocOtros && ex.DocTypeOther != "" {
					writeEl(enc, "TipoDocumentoOTRO", ex.DocTypeOther)
				}
				writeEl(enc, "NumeroDocumento", ex.DocNumber)
				if ex.Article > 0 {
					writeEl(enc, "Articulo", strconv.Itoa(ex.Article))
				}
				if ex.Subsection > 0 {
					writeEl(enc, "Inciso", strconv.Itoa(ex.Subsection))
				}
				writeEl(enc, "NombreInstitucion", ex.Issuer)
				if ex.IssuerOther != "" {
					writeEl(enc, "NombreInstitucionOtros", ex.IssuerOther)
				}
				if !ex.IssueDate.IsZero() {
					writeEl(enc, "FechaEmisionEX", emissionTime(ex.IssueDate).Format("2006-01-02T15:04:05-07:00"))
				}
				pct := ex.Percentage
				if pct.IsZero() {
					pct = decimal.NewFromInt(100)
				}
				// porcentaje de la tarifa que queda exonerado
				writeEl(enc, "TarifaExonerada", line.TaxRate.Mul(pct).Div(decimal.NewFromInt(100)).Round(2).String())
				writeEl(enc, "MontoExoneracion", fmtAmount(line.Exempted))
				end(enc, "Exoneracion")
			}
			end(enc, "Impuesto")
		}

		writeEl(enc, "ImpuestoNeto", fmtAmount(line.TaxAmount))
		writeEl(enc, "MontoTotalLinea", fmtAmount(line.Total))
		end(enc, "LineaDetalle")
	}
	end(enc, "DetalleServicio")
	return nil
}

// serviceUnits unidades que clasifican la línea como servicio en el resumen.
var serviceUnits = map[string]bool{"Sp": true, "Spe": true, "St": true, "Os": true, "Al": true}

func (b *XMLBuilder) writeResumen(enc *xml.Encoder, doc *entity.Document, ctx *BuildContext) {
	var servGravados, servExentos, mercGravadas, mercExentas decimal.Decimal
	for i := range doc.Lines {
		line := &doc.Lines[i]
		gross := line.Quantity.Mul(line.UnitPrice)
		taxed := line.TaxAmount.IsPositive()
		switch {
		case serviceUnits[line.Unit] && taxed:
			servGravados = servGravados.Add(gross)
		case serviceUnits[line.Unit]:
			servExentos = servExentos.Add(gross)
		case taxed:
			mercGravadas = mercGravadas.Add(gross)
		default:
			mercExentas = mercExentas.Add(gross)
		}
	}
	totalGravado := servGravados.Add(mercGravadas)
	totalExento := servExentos.Add(mercExentas)
	totalVenta := totalGravado.Add(totalExento)

	start(enc, "ResumenFactura")
	start(enc, "CodigoTipoMoneda")
	currency := doc.Currency
	if currency == "" {
		currency = "CRC"
	}
	writeEl(enc, "CodigoMoneda", currency)
	rate := doc.Exchange
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	writeEl(enc, "TipoCambio", fmtAmount(rate))
	end(enc, "CodigoTipoMoneda")

	writeEl(enc, "TotalServGravados", fmtAmount(servGravados))
	writeEl(enc, "TotalServExentos", fmtAmount(servExentos))
	writeEl(enc, "TotalMercanciasGravadas", fmtAmount(mercGravadas))
	writeEl(enc, "TotalMercanciasExentas", fmtAmount(mercExentas))
	writeEl(enc, "TotalGravado", fmtAmount(totalGravado))
	writeEl(enc, "TotalExento", fmtAmount(totalExento))
	writeEl(enc, "TotalVenta", fmtAmount(totalVenta))
	writeEl(enc, "TotalDescuentos", fmtAmount(doc.DiscountTotal))
	writeEl(enc, "TotalVentaNeta", fmtAmount(totalVenta.Sub(doc.DiscountTotal)))
	writeEl(enc, "TotalImpuesto", fmtAmount(doc.TaxTotal))
	if doc.ExemptedTotal.IsPositive() {
		writeEl(enc, "TotalExonerado", fmtAmount(doc.ExemptedTotal))
	}
	if ctx.PaymentMeans != "" {
		start(enc, "MedioPago")
		writeEl(enc, "TipoMedioPago", ctx.PaymentMeans)
		end(enc, "MedioPago")
	}
	writeEl(enc, "TotalComprobante", fmtAmount(doc.GrandTotal))
	end(enc, "ResumenFactura")
}

func (b *XMLBuilder) writeReferencia(enc *xml.Encoder, ref *entity.Reference, docDate time.Time) {
	start(enc, "InformacionReferencia")
	writeEl(enc, "TipoDocIR", ref.DocType)
	if ref.Clave != "" {
		writeEl(enc, "Numero", ref.Clave)
	} else {
		writeEl(enc, "Numero", ref.Consecutive)
	}
	refDate := ref.Date
	if refDate.IsZero() {
		refDate = docDate
	}
	writeEl(enc, "FechaEmisionIR", emissionTime(refDate).Format("2006-01-02T15:04:05-07:00"))
	writeEl(enc, "Codigo", ref.Code)
	writeEl(enc, "Razon", ref.Reason)
	end(enc, "InformacionReferencia")
}

// ── Helpers de escritura ───────────────────────────────────────────────────────

func start(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func end(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	start(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, local)
}

func fmtAmount(d decimal.Decimal) string {
	return d.Round(5).String()
}
