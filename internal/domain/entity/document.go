package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un comprobante electrónico ante Hacienda.
const (
	StatusDraft      = "DRAFT"      // Guardado para reservar ID y consecutivo
	StatusSigned     = "SIGNED"     // XML firmado, pendiente de envío
	StatusSubmitted  = "SUBMITTED"  // Recibido por el API de recepción
	StatusProcessing = "PROCESSING" // En validación por Hacienda
	StatusAccepted   = "ACCEPTED"   // Aceptado (estado final)
	StatusRejected   = "REJECTED"   // Rechazado (estado final)
	StatusCancelled  = "CANCELLED"  // Anulado por nota de crédito aceptada
	StatusError      = "ERROR"      // Falló firma o generación del XML
)

// IsFinalStatus indica si el estado ya no cambia con nuevas consultas.
func IsFinalStatus(s string) bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// Document representa la cabecera de un comprobante electrónico
// (factura, tiquete, nota de crédito o nota de débito).
type Document struct {
	ID          string
	CompanyID   string
	ClientID    string // vacío en tiquetes sin receptor identificado
	DocType     string // "01" FE, "02" TIQ, "03" NC, "04" ND
	Consecutive string // legible, ej. "FE-0000000151"
	Sequence    int64  // numérico, base del bloque de 20 dígitos
	Clave       string // clave numérica de 50 dígitos
	Date        time.Time
	Currency    string          // "CRC" o "USD"
	Exchange    decimal.Decimal // tipo de cambio aplicado (1 para CRC)

	Subtotal      decimal.Decimal // suma de bases imponibles
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal // impuesto neto (post exoneración)
	ExemptedTotal decimal.Decimal // impuesto exonerado
	GrandTotal    decimal.Decimal

	Status       string
	XMLSigned    string // XML firmado completo
	ResponseXML  string // MensajeHacienda devuelto en la consulta de estado
	StatusDetail string // DetalleMensaje u otros mensajes del validador
	LocationURL  string // header Location devuelto al enviar

	// Referencia a otro comprobante (solo NC/ND).
	Reference *Reference

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []DocumentLine
}

// Reference identifica el comprobante que una nota de crédito o débito afecta.
type Reference struct {
	DocType     string // tipo del comprobante referenciado
	Clave       string // clave de 50 dígitos (preferida)
	Consecutive string // alternativa legible, ej. "FE-0000000151"
	Code        string // "01" anula, "02" corrige texto, "04" referencia
	Reason      string
	Date        time.Time
}

// IsAnnulment indica si la referencia anula el comprobante referenciado.
func (r *Reference) IsAnnulment() bool {
	return r != nil && r.Code == "01"
}

// DocumentLine representa una línea de detalle con su cálculo de impuesto.
type DocumentLine struct {
	ID         string
	DocumentID string
	LineNumber int
	Code       string // código CAByS del producto o servicio
	Detail     string
	Unit       string // unidad de medida, ej. "Unid", "Sp"
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	Discount   decimal.Decimal

	TaxCode     string          // "01" IVA
	TaxRateCode string          // código de tarifa, ej. "08" = 13%
	TaxRate     decimal.Decimal // porcentaje, ej. 13

	Exemption *Exemption

	TaxableBase decimal.Decimal // cantidad*precio - descuento
	TaxAmount   decimal.Decimal // impuesto neto de la línea
	Exempted    decimal.Decimal // monto de impuesto exonerado
	Total       decimal.Decimal // base + impuesto neto
}

// Exemption documento de exoneración aplicado a una línea.
type Exemption struct {
	DocType      string // código del tipo de documento de exoneración
	DocTypeOther string // descripción libre, obligatoria cuando DocType es "99"
	DocNumber    string
	LawName      string // ley o decreto que ampara la exoneración
	Article      int    // artículo de la ley (0 = no aplica)
	Subsection   int    // inciso del artículo (0 = no aplica)
	Issuer       string // institución que emitió el documento
	IssuerOther  string // descripción libre, obligatoria cuando Issuer es "99"
	IssueDate    time.Time
	Percentage   decimal.Decimal // porcentaje exonerado del impuesto
	PurchasePct  decimal.Decimal // porcentaje de la compra cubierto por la autorización
}
