package repository

import "github.com/invosell/factura-api/internal/domain/entity"

// ClientRepository define el puerto de persistencia para Client (receptores).
type ClientRepository interface {
	Create(client *entity.Client) error
	GetByID(id string) (*entity.Client, error)
	GetByCedula(companyID, cedula string) (*entity.Client, error)
	Update(client *entity.Client) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Client, error)
	Delete(id string) error
}
