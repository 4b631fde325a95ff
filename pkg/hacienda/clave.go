// Codec de la clave numérica de 50 dígitos del comprobante electrónico
// (resolución DGT-R-48-2016 y Anexo de estructuras v4.4).
//
// Estructura:
//
//	Posiciones 1-3:   Código de país (506 para Costa Rica)
//	Posiciones 4-5:   Día de emisión
//	Posiciones 6-7:   Mes de emisión
//	Posiciones 8-9:   Año de emisión (dos últimos dígitos)
//	Posiciones 10-21: Cédula del emisor (12 dígitos, rellenada con ceros)
//	Posiciones 22-41: Consecutivo (20 dígitos: sucursal 001 + terminal 00001 +
//	                  tipo de comprobante 2 + numeración 10)
//	Posición  42:     Situación (1 normal, 2 contingencia, 3 sin internet)
//	Posiciones 43-50: Código de seguridad (8 dígitos aleatorios)

package hacienda

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	// ClaveLength longitud exacta de la clave.
	ClaveLength = 50
	// DefaultCountryCode código de país de Costa Rica.
	DefaultCountryCode = "506"

	branchCode   = "001"   // casa matriz / sucursal
	terminalCode = "00001" // terminal o punto de venta
)

// CostaRica es la zona horaria de emisión. La fecha de la clave y la
// FechaEmision del XML se derivan siempre de esta zona, venga la hora del
// servidor en la zona que venga.
var CostaRica = time.FixedZone("America/Costa_Rica", -6*60*60)

// ClaveParams datos de entrada para generar la clave.
type ClaveParams struct {
	Country      string    // vacío = DefaultCountryCode
	Date         time.Time // fecha de emisión (obligatoria)
	IssuerID     string    // cédula del emisor, hasta 12 dígitos (se admiten guiones)
	DocType      string    // "01".."04"; vacío = se deriva del prefijo del consecutivo
	Consecutive  string    // "FE-0000000151", "NC-0000000007" o solo dígitos
	Situation    string    // "1", "2" o "3"; vacío = "1"
	SecurityCode string    // 8 dígitos; vacío = aleatorio
}

// ClaveParts resultado de decodificar una clave.
type ClaveParts struct {
	Country      string
	Day          int
	Month        int
	Year         int    // año completo (20XX)
	IssuerID     string // cédula sin ceros a la izquierda
	DocType      string
	Consecutive  string // "FE-0000000151" si el bloque de enrutamiento coincide; si no, el bloque crudo de 20 dígitos
	Sequence     string // numeración de 10 dígitos (vacía si el bloque no coincide)
	Situation    string
	SecurityCode string
}

var (
	digitsOnly       = regexp.MustCompile(`^[0-9]+$`)
	consecutivePat   = regexp.MustCompile(`^([A-Z]+)-([0-9]+)$`)
	nonDigitPattern  = regexp.MustCompile(`[^0-9]`)
)

// GenerateClave genera la clave de 50 dígitos. Falla si la fecha está ausente,
// la cédula supera 12 dígitos o la numeración del consecutivo supera 10 dígitos.
func GenerateClave(p ClaveParams) (string, error) {
	if p.Date.IsZero() {
		return "", fmt.Errorf("hacienda: fecha requerida para generar la clave")
	}

	country := p.Country
	if country == "" {
		country = DefaultCountryCode
	}
	if len(country) != 3 || !digitsOnly.MatchString(country) {
		return "", fmt.Errorf("hacienda: código de país inválido %q", country)
	}

	cedula := nonDigitPattern.ReplaceAllString(p.IssuerID, "")
	if cedula == "" {
		return "", fmt.Errorf("hacienda: cédula del emisor requerida")
	}
	if len(cedula) > 12 {
		return "", fmt.Errorf("hacienda: cédula del emisor no puede exceder 12 dígitos, tiene %d", len(cedula))
	}

	docType, seq, err := parseConsecutive(p.Consecutive, p.DocType)
	if err != nil {
		return "", err
	}

	situation := p.Situation
	if situation == "" {
		situation = SituationNormal
	}
	if !ValidSituations[situation] {
		return "", fmt.Errorf("hacienda: situación inválida %q (usar 1, 2 o 3)", situation)
	}

	security := p.SecurityCode
	if security == "" {
		security, err = randomSecurityCode()
		if err != nil {
			return "", err
		}
	}
	if len(security) != 8 || !digitsOnly.MatchString(security) {
		return "", fmt.Errorf("hacienda: código de seguridad debe tener 8 dígitos")
	}

	// La fecha de la clave es la del día calendario en Costa Rica.
	local := p.Date.In(CostaRica)
	clave := country +
		fmt.Sprintf("%02d", local.Day()) +
		fmt.Sprintf("%02d", int(local.Month())) +
		fmt.Sprintf("%02d", local.Year()%100) +
		fmt.Sprintf("%012s", cedula) +
		ConsecutiveBlock(docType, seq) +
		situation +
		security

	if len(clave) != ClaveLength {
		return "", fmt.Errorf("hacienda: clave generada con longitud %d, se esperaban %d", len(clave), ClaveLength)
	}
	return clave, nil
}

// DecodeClave valida y descompone una clave de 50 dígitos. Es tolerante con el
// bloque de consecutivo: solo reconstruye el consecutivo humano cuando el
// enrutamiento (sucursal+terminal+tipo) coincide con las constantes del
// generador; en caso contrario devuelve el bloque crudo de 20 dígitos.
func DecodeClave(clave string) (*ClaveParts, error) {
	if len(clave) != ClaveLength {
		return nil, fmt.Errorf("hacienda: la clave debe tener %d dígitos, tiene %d", ClaveLength, len(clave))
	}
	if !digitsOnly.MatchString(clave) {
		return nil, fmt.Errorf("hacienda: la clave solo puede contener dígitos")
	}

	parts := &ClaveParts{
		Country:      clave[0:3],
		Situation:    clave[41:42],
		SecurityCode: clave[42:50],
	}
	if parts.Country != DefaultCountryCode {
		return nil, fmt.Errorf("hacienda: código de país %q inválido (se esperaba %s)", parts.Country, DefaultCountryCode)
	}

	day := int(clave[3]-'0')*10 + int(clave[4]-'0')
	month := int(clave[5]-'0')*10 + int(clave[6]-'0')
	year := 2000 + int(clave[7]-'0')*10 + int(clave[8]-'0')
	if day < 1 || day > 31 {
		return nil, fmt.Errorf("hacienda: día %02d fuera de rango", day)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("hacienda: mes %02d fuera de rango", month)
	}
	parts.Day, parts.Month, parts.Year = day, month, year

	if !ValidSituations[parts.Situation] {
		return nil, fmt.Errorf("hacienda: situación %q inválida (usar 1, 2 o 3)", parts.Situation)
	}

	cedula := strings.TrimLeft(clave[9:21], "0")
	if cedula == "" {
		cedula = "0"
	}
	parts.IssuerID = cedula

	block := clave[21:41]
	parts.DocType = block[8:10]
	routing := block[0:8]
	if routing == branchCode+terminalCode && ValidDocTypes[parts.DocType] {
		parts.Sequence = block[10:20]
		parts.Consecutive = ConsecutivePrefixes[parts.DocType] + "-" + parts.Sequence
	} else {
		// Enrutamiento desconocido: no adivinar, entregar el bloque tal cual.
		parts.Consecutive = block
	}
	return parts, nil
}

// ConsecutiveBlock arma el bloque de 20 dígitos del consecutivo para la clave
// y para el elemento NumeroConsecutivo del XML.
func ConsecutiveBlock(docType, sequence string) string {
	return branchCode + terminalCode + docType + fmt.Sprintf("%010s", sequence)
}

// FormatConsecutive devuelve el consecutivo humano para un tipo y numeración
// (ej: FormatConsecutive("01", 151) == "FE-0000000151").
func FormatConsecutive(docType string, number int64) string {
	prefix := ConsecutivePrefixes[docType]
	if prefix == "" {
		prefix = ConsecutivePrefixes[DocTypeFactura]
	}
	return fmt.Sprintf("%s-%010d", prefix, number)
}

// parseConsecutive extrae tipo y numeración desde el consecutivo humano.
// Acepta "FE-0000000151" (el prefijo determina el tipo si docType está vacío)
// o una cadena de solo dígitos.
func parseConsecutive(consecutive, docType string) (string, string, error) {
	consecutive = strings.TrimSpace(consecutive)
	if consecutive == "" {
		return "", "", fmt.Errorf("hacienda: consecutivo requerido")
	}

	var seq string
	if m := consecutivePat.FindStringSubmatch(consecutive); m != nil {
		seq = m[2]
		if docType == "" {
			docType = DocTypeForPrefix[m[1]]
		}
	} else {
		seq = nonDigitPattern.ReplaceAllString(consecutive, "")
	}
	if seq == "" {
		return "", "", fmt.Errorf("hacienda: consecutivo %q sin numeración", consecutive)
	}
	seq = strings.TrimLeft(seq, "0")
	if seq == "" {
		seq = "0"
	}
	if len(seq) > 10 {
		return "", "", fmt.Errorf("hacienda: numeración del consecutivo no puede exceder 10 dígitos, tiene %d", len(seq))
	}

	if docType == "" {
		docType = DocTypeFactura
	}
	if !ValidDocTypes[docType] {
		return "", "", fmt.Errorf("hacienda: tipo de comprobante inválido %q", docType)
	}
	return docType, seq, nil
}

// randomSecurityCode genera los 8 dígitos aleatorios de la clave. No requiere
// unicidad: Hacienda deduplica por la clave completa.
func randomSecurityCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", fmt.Errorf("hacienda: generar código de seguridad: %w", err)
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}
