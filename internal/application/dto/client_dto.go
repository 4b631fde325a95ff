package dto

import "github.com/invosell/factura-api/internal/domain/entity"

// CreateClientRequest body para POST /api/clients.
type CreateClientRequest struct {
	Name     string `json:"name"`
	IDType   string `json:"id_type,omitempty"` // "01" física por defecto
	Cedula   string `json:"cedula"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Province string `json:"province,omitempty"`
	Canton   string `json:"canton,omitempty"`
	District string `json:"district,omitempty"`
	Address  string `json:"address,omitempty"`
}

// UpdateClientRequest body para PUT /api/clients/:id (campos opcionales).
type UpdateClientRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Province string `json:"province,omitempty"`
	Canton   string `json:"canton,omitempty"`
	District string `json:"district,omitempty"`
	Address  string `json:"address,omitempty"`
}

// ClientResponse receptor en respuestas.
type ClientResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	IDType    string `json:"id_type"`
	Cedula    string `json:"cedula"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Province  string `json:"province,omitempty"`
	Canton    string `json:"canton,omitempty"`
	District  string `json:"district,omitempty"`
	Address   string `json:"address,omitempty"`
}

// NewClientResponse mapea la entidad a la respuesta HTTP.
func NewClientResponse(c *entity.Client) *ClientResponse {
	return &ClientResponse{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Name:      c.Name,
		IDType:    c.IDType,
		Cedula:    c.Cedula,
		Email:     c.Email,
		Phone:     c.Phone,
		Province:  c.Province,
		Canton:    c.Canton,
		District:  c.District,
		Address:   c.Address,
	}
}
