package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para emisores.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `
	id, name, trade_name, id_type, cedula, email, phone, province, canton,
	district, address, economic_code, atv_user, atv_password, keystore,
	keystore_pin, cert_expires_at, status, created_at, updated_at`

// Create persiste un nuevo emisor.
func (r *CompanyRepo) Create(company *entity.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(context.Background(), query,
		company.ID, company.Name, company.TradeName, company.IDType, company.Cedula,
		company.Email, company.Phone, company.Province, company.Canton,
		company.District, company.Address, company.EconomicCode,
		nullIfEmpty(company.ATVUser), nullIfEmpty(company.ATVPassword),
		nullIfEmpty(company.Keystore), nullIfEmpty(company.KeystorePin),
		company.CertExpiresAt, company.Status,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene un emisor por ID.
func (r *CompanyRepo) GetByID(id string) (*entity.Company, error) {
	return r.getOne(`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

// GetByCedula obtiene un emisor por cédula.
func (r *CompanyRepo) GetByCedula(cedula string) (*entity.Company, error) {
	return r.getOne(`SELECT `+companyColumns+` FROM companies WHERE cedula = $1`, cedula)
}

func (r *CompanyRepo) getOne(query string, arg any) (*entity.Company, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// Update actualiza los datos generales del emisor (no toca el material ATV).
func (r *CompanyRepo) Update(company *entity.Company) error {
	query := `
		UPDATE companies
		SET name = $2, trade_name = $3, id_type = $4, cedula = $5, email = $6,
		    phone = $7, province = $8, canton = $9, district = $10, address = $11,
		    economic_code = $12, status = $13, updated_at = $14
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		company.ID, company.Name, company.TradeName, company.IDType, company.Cedula,
		company.Email, company.Phone, company.Province, company.Canton,
		company.District, company.Address, company.EconomicCode,
		company.Status, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

// UpdateCredentials guarda el material ATV ya encriptado.
func (r *CompanyRepo) UpdateCredentials(company *entity.Company) error {
	query := `
		UPDATE companies
		SET atv_user        = COALESCE($2, atv_user),
		    atv_password    = COALESCE($3, atv_password),
		    keystore        = COALESCE($4, keystore),
		    keystore_pin    = COALESCE($5, keystore_pin),
		    cert_expires_at = COALESCE($6, cert_expires_at),
		    updated_at      = $7
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		company.ID,
		nullIfEmpty(company.ATVUser), nullIfEmpty(company.ATVPassword),
		nullIfEmpty(company.Keystore), nullIfEmpty(company.KeystorePin),
		company.CertExpiresAt, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update company credentials: %w", err)
	}
	return nil
}

// List devuelve emisores con paginación.
func (r *CompanyRepo) List(limit, offset int) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + `
		FROM companies ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Delete elimina un emisor por ID.
func (r *CompanyRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	var atvUser, atvPassword, keystore, keystorePin *string
	err := row.Scan(
		&c.ID, &c.Name, &c.TradeName, &c.IDType, &c.Cedula, &c.Email, &c.Phone,
		&c.Province, &c.Canton, &c.District, &c.Address, &c.EconomicCode,
		&atvUser, &atvPassword, &keystore, &keystorePin,
		&c.CertExpiresAt, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ATVUser = deref(atvUser)
	c.ATVPassword = deref(atvPassword)
	c.Keystore = deref(keystore)
	c.KeystorePin = deref(keystorePin)
	return &c, nil
}
