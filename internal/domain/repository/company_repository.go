package repository

import "github.com/invosell/factura-api/internal/domain/entity"

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(company *entity.Company) error
	GetByID(id string) (*entity.Company, error)
	GetByCedula(cedula string) (*entity.Company, error)
	Update(company *entity.Company) error
	// UpdateCredentials guarda el material ATV ya encriptado.
	UpdateCredentials(company *entity.Company) error
	List(limit, offset int) ([]*entity.Company, error)
	Delete(id string) error
}
