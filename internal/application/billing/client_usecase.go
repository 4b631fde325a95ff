package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/invosell/factura-api/internal/application/dto"
	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
)

// ClientUseCase casos de uso para receptores (clientes de facturación).
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create crea un nuevo receptor.
func (uc *ClientUseCase) Create(companyID string, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if in.Name == "" || in.Cedula == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetByCedula(companyID, in.Cedula)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	idType := in.IDType
	if idType == "" {
		idType = "01"
	}
	client := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      in.Name,
		IDType:    idType,
		Cedula:    in.Cedula,
		Email:     in.Email,
		Phone:     in.Phone,
		Province:  in.Province,
		Canton:    in.Canton,
		District:  in.District,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(client); err != nil {
		return nil, err
	}
	return dto.NewClientResponse(client), nil
}

// Get obtiene un receptor de la empresa.
func (uc *ClientUseCase) Get(companyID, id string) (*dto.ClientResponse, error) {
	client, err := uc.repo.GetByID(id)
	if err != nil || client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return dto.NewClientResponse(client), nil
}

// List lista receptores de la empresa.
func (uc *ClientUseCase) List(companyID string, limit, offset int) ([]*dto.ClientResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.repo.ListByCompany(companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.NewClientResponse(c))
	}
	return out, nil
}

// Update actualiza los datos de un receptor.
func (uc *ClientUseCase) Update(companyID, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := uc.repo.GetByID(id)
	if err != nil || client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if in.Name != "" {
		client.Name = in.Name
	}
	if in.Email != "" {
		client.Email = in.Email
	}
	if in.Phone != "" {
		client.Phone = in.Phone
	}
	if in.Province != "" {
		client.Province = in.Province
	}
	if in.Canton != "" {
		client.Canton = in.Canton
	}
	if in.District != "" {
		client.District = in.District
	}
	if in.Address != "" {
		client.Address = in.Address
	}
	client.UpdatedAt = time.Now()
	if err := uc.repo.Update(client); err != nil {
		return nil, err
	}
	return dto.NewClientResponse(client), nil
}

// Delete elimina un receptor.
func (uc *ClientUseCase) Delete(companyID, id string) error {
	client, err := uc.repo.GetByID(id)
	if err != nil || client == nil {
		return domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return uc.repo.Delete(id)
}
