// Package hacienda contiene los codecs y catálogos del comprobante electrónico
// de Costa Rica (Ministerio de Hacienda, esquema v4.4).
package hacienda

// =============================================================================
// Tipos de comprobante (posiciones 30-31 del consecutivo de 20 dígitos).
// =============================================================================

const (
	DocTypeFactura     = "01" // Factura electrónica
	DocTypeTiquete     = "02" // Tiquete electrónico
	DocTypeNotaCredito = "03" // Nota de crédito electrónica
	DocTypeNotaDebito  = "04" // Nota de débito electrónica
)

// ValidDocTypes contiene los tipos de comprobante soportados por el motor.
var ValidDocTypes = map[string]bool{
	DocTypeFactura:     true,
	DocTypeTiquete:     true,
	DocTypeNotaCredito: true,
	DocTypeNotaDebito:  true,
}

// ConsecutivePrefixes asocia el tipo de comprobante con el prefijo humano
// del consecutivo (ej: "FE-0000000151").
var ConsecutivePrefixes = map[string]string{
	DocTypeFactura:     "FE",
	DocTypeTiquete:     "TIQ",
	DocTypeNotaCredito: "NC",
	DocTypeNotaDebito:  "ND",
}

// DocTypeForPrefix es el mapa inverso de ConsecutivePrefixes.
var DocTypeForPrefix = map[string]string{
	"FE":  DocTypeFactura,
	"TIQ": DocTypeTiquete,
	"NC":  DocTypeNotaCredito,
	"ND":  DocTypeNotaDebito,
}

// =============================================================================
// Situación del comprobante (posición 42 de la clave).
// =============================================================================

const (
	SituationNormal      = "1" // Emisión normal
	SituationContingency = "2" // Contingencia
	SituationOffline     = "3" // Sin internet
)

// ValidSituations contiene los códigos de situación válidos.
var ValidSituations = map[string]bool{
	SituationNormal:      true,
	SituationContingency: true,
	SituationOffline:     true,
}

// =============================================================================
// Códigos de impuesto y de tarifa IVA (catálogo Hacienda).
// =============================================================================

const (
	TaxCodeIVA = "01" // Impuesto al Valor Agregado

	// Códigos de tarifa IVA más usados (catálogo CodigoTarifaIVA).
	IVARateCodeExempt   = "01" // Exento
	IVARateCodeReduced1 = "02" // Tarifa reducida 1%
	IVARateCodeReduced2 = "03" // Tarifa reducida 2%
	IVARateCodeReduced4 = "04" // Tarifa reducida 4%
	IVARateCodeGeneral  = "08" // Tarifa general 13%
)

// =============================================================================
// Tipos de documento de exoneración (TipoDocumentoEX1).
// =============================================================================

const (
	ExemptionDocCompraAutorizada = "02" // Orden de compra autorizada
	ExemptionDocDiplomatico      = "03" // Exención diplomática
	ExemptionDocLeyEspecial      = "04" // Autorizado por ley especial
	ExemptionDocZonaFranca       = "05" // Zona franca
	ExemptionDocOtros            = "99" // Otros (requiere TipoDocumentoOTRO)
)

// =============================================================================
// Códigos de referencia de notas de crédito/débito (CodigoReferencia).
// =============================================================================

const (
	ReferenceCodeAnulacion  = "01" // Anula documento de referencia (anulación total)
	ReferenceCodeCorrige    = "02" // Corrige texto del documento de referencia
	ReferenceCodeMonto      = "04" // Corrige monto
	ReferenceCodeDevolucion = "05" // Devolución de mercancía
)

// Condición de venta y medio de pago por defecto.
const (
	SaleConditionCash  = "01" // Contado
	SaleConditionCred  = "02" // Crédito
	PaymentMeansCash   = "01" // Efectivo
	PaymentMeansCard   = "02" // Tarjeta
	PaymentMeansWire   = "04" // Transferencia
)
