// Package hacienda implementa los clientes HTTP del API de recepción de
// comprobantes electrónicos y del IDP de ATV, y el ensamblador del XML v4.4.
package hacienda

// ── Payloads del API de recepción ──────────────────────────────────────────────

// PartyID identifica a un emisor o receptor en el payload de recepción.
type PartyID struct {
	TipoIdentificacion   string `json:"tipoIdentificacion"`
	NumeroIdentificacion string `json:"numeroIdentificacion"`
}

// ReceptionPayload es el cuerpo JSON del POST /recepcion.
type ReceptionPayload struct {
	Clave          string   `json:"clave"`
	Fecha          string   `json:"fecha"` // RFC3339 con offset -06:00
	Emisor         PartyID  `json:"emisor"`
	Receptor       *PartyID `json:"receptor,omitempty"`
	ComprobanteXML string   `json:"comprobanteXml"` // XML firmado en base64
}

// StatusResponse es la respuesta del GET /recepcion/{clave}.
type StatusResponse struct {
	Clave          string `json:"clave"`
	Fecha          string `json:"fecha"`
	IndEstado      string `json:"ind-estado"`
	RespuestaXML   string `json:"respuesta-xml"` // MensajeHacienda en base64
	DetalleMensaje string `json:"DetalleMensaje"`
}

// ── Respuestas del IDP ─────────────────────────────────────────────────────────

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
