package entity

import "time"

// Company representa un emisor de comprobantes (multi-tenant).
// Las credenciales ATV y el certificado se guardan encriptados; solo la
// frontera de desencriptación los abre al momento de firmar o enviar.
type Company struct {
	ID           string
	Name         string // razón social
	TradeName    string // nombre comercial
	IDType       string // "01" física, "02" jurídica, "03" DIMEX, "04" NITE
	Cedula       string // cédula del emisor (hasta 12 dígitos en la clave)
	Email        string
	Phone        string
	Province     string
	Canton       string
	District     string
	Address      string
	EconomicCode string // código de actividad económica

	// Material ATV encriptado (AES-GCM, ver pkg/secrets).
	ATVUser       string // usuario del IDP, encriptado
	ATVPassword   string // contraseña del IDP, encriptada
	Keystore      string // archivo .p12 en base64, encriptado
	KeystorePin   string // PIN del .p12, encriptado
	CertExpiresAt *time.Time

	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
