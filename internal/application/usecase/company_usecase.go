package usecase

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/invosell/factura-api/internal/application/dto"
	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
	"github.com/invosell/factura-api/internal/infrastructure/hacienda/signer"
	"github.com/invosell/factura-api/pkg/secrets"
)

// CompanyUseCase aplica reglas de negocio para emisores (casos de uso).
type CompanyUseCase struct {
	repo  repository.CompanyRepository
	vault *secrets.Vault
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia y
// la bóveda que encripta el material ATV.
func NewCompanyUseCase(repo repository.CompanyRepository, vault *secrets.Vault) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, vault: vault}
}

// Create registra un nuevo emisor. Genera ID y estado inicial.
// Devuelve domain.ErrDuplicate si la cédula ya existe.
func (uc *CompanyUseCase) Create(in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if in.Name == "" || in.Cedula == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetByCedula(in.Cedula)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	idType := in.IDType
	if idType == "" {
		idType = "02"
	}
	now := time.Now()
	company := &entity.Company{
		ID:           uuid.New().String(),
		Name:         in.Name,
		TradeName:    in.TradeName,
		IDType:       idType,
		Cedula:       in.Cedula,
		Email:        in.Email,
		Phone:        in.Phone,
		Province:     in.Province,
		Canton:       in.Canton,
		District:     in.District,
		Address:      in.Address,
		EconomicCode: in.EconomicCode,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(company); err != nil {
		return nil, err
	}
	return dto.NewCompanyResponse(company), nil
}

// GetByID obtiene un emisor por ID.
func (uc *CompanyUseCase) GetByID(id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, nil
	}
	return dto.NewCompanyResponse(company), nil
}

// Update actualiza los datos generales del emisor.
func (uc *CompanyUseCase) Update(id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(id)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&company.Name, in.Name)
	apply(&company.TradeName, in.TradeName)
	apply(&company.Email, in.Email)
	apply(&company.Phone, in.Phone)
	apply(&company.Province, in.Province)
	apply(&company.Canton, in.Canton)
	apply(&company.District, in.District)
	apply(&company.Address, in.Address)
	apply(&company.EconomicCode, in.EconomicCode)
	apply(&company.Status, in.Status)
	company.UpdatedAt = time.Now()
	if err := uc.repo.Update(company); err != nil {
		return nil, err
	}
	return dto.NewCompanyResponse(company), nil
}

// UploadCredentials guarda las credenciales ATV y el certificado del emisor.
// El keystore se abre una vez con el PIN para validar que es un .p12 vigente y
// extraer la fecha de expiración; todo se persiste encriptado.
func (uc *CompanyUseCase) UploadCredentials(id string, in dto.UploadCredentialsRequest) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(id)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}

	if in.Keystore != "" {
		if in.KeystorePin == "" {
			return nil, fmt.Errorf("%w: el keystore requiere PIN", domain.ErrInvalidInput)
		}
		p12, err := base64.StdEncoding.DecodeString(in.Keystore)
		if err != nil {
			return nil, fmt.Errorf("%w: keystore no es base64", domain.ErrInvalidKeystore)
		}
		cert, err := signer.DecodeKeystore(p12, in.KeystorePin)
		if err != nil {
			return nil, err
		}
		if err := signer.CheckValidity(cert, time.Now()); err != nil {
			return nil, err
		}
		expires := cert.Leaf.NotAfter
		company.CertExpiresAt = &expires

		if company.Keystore, err = uc.vault.Encrypt([]byte(in.Keystore)); err != nil {
			return nil, err
		}
		if company.KeystorePin, err = uc.vault.Encrypt([]byte(in.KeystorePin)); err != nil {
			return nil, err
		}
	}

	if in.ATVUser != "" {
		if company.ATVUser, err = uc.vault.Encrypt([]byte(in.ATVUser)); err != nil {
			return nil, err
		}
	}
	if in.ATVPassword != "" {
		if company.ATVPassword, err = uc.vault.Encrypt([]byte(in.ATVPassword)); err != nil {
			return nil, err
		}
	}

	company.UpdatedAt = time.Now()
	if err := uc.repo.UpdateCredentials(company); err != nil {
		return nil, err
	}
	return dto.NewCompanyResponse(company), nil
}

// List lista emisores con paginación.
func (uc *CompanyUseCase) List(limit, offset int) (*dto.CompanyListResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *dto.NewCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}
