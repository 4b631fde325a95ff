package dto

import (
	"time"

	"github.com/invosell/factura-api/internal/domain/entity"
)

// CreateCompanyRequest entrada para registrar un emisor.
type CreateCompanyRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	TradeName    string `json:"trade_name"`
	IDType       string `json:"id_type"` // "01" física, "02" jurídica
	Cedula       string `json:"cedula" validate:"required,min=9,max=12"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	Province     string `json:"province"`
	Canton       string `json:"canton"`
	District     string `json:"district"`
	Address      string `json:"address"`
	EconomicCode string `json:"economic_code"`
}

// UpdateCompanyRequest entrada para actualizar un emisor (campos opcionales).
type UpdateCompanyRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	TradeName    *string `json:"trade_name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone"`
	Province     *string `json:"province"`
	Canton       *string `json:"canton"`
	District     *string `json:"district"`
	Address      *string `json:"address"`
	EconomicCode *string `json:"economic_code"`
	Status       *string `json:"status" validate:"omitempty,oneof=active suspended inactive"`
}

// UploadCredentialsRequest entrada para cargar las credenciales ATV y el
// certificado de firma del emisor. Todos los campos viajan en claro por TLS y
// se guardan encriptados; nunca se devuelven en respuestas.
type UploadCredentialsRequest struct {
	ATVUser     string `json:"atv_user"`
	ATVPassword string `json:"atv_password"`
	Keystore    string `json:"keystore"` // archivo .p12 en base64
	KeystorePin string `json:"keystore_pin"`
}

// CompanyResponse salida de un emisor (sin material sensible).
type CompanyResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	TradeName     string     `json:"trade_name,omitempty"`
	IDType        string     `json:"id_type"`
	Cedula        string     `json:"cedula"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Province      string     `json:"province,omitempty"`
	Canton        string     `json:"canton,omitempty"`
	District      string     `json:"district,omitempty"`
	Address       string     `json:"address,omitempty"`
	EconomicCode  string     `json:"economic_code,omitempty"`
	HasKeystore   bool       `json:"has_keystore"`
	CertExpiresAt *time.Time `json:"cert_expires_at,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewCompanyResponse mapea la entidad a la respuesta HTTP. El material
// encriptado solo se refleja como presencia (has_keystore).
func NewCompanyResponse(c *entity.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:            c.ID,
		Name:          c.Name,
		TradeName:     c.TradeName,
		IDType:        c.IDType,
		Cedula:        c.Cedula,
		Email:         c.Email,
		Phone:         c.Phone,
		Province:      c.Province,
		Canton:        c.Canton,
		District:      c.District,
		Address:       c.Address,
		EconomicCode:  c.EconomicCode,
		HasKeystore:   c.Keystore != "",
		CertExpiresAt: c.CertExpiresAt,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CompanyListResponse lista paginada de emisores.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
