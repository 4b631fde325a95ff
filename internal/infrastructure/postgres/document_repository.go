package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id, company_id, client_id, doc_type, consecutive, sequence, clave, date,
	currency, exchange_rate, subtotal, discount_total, tax_total, exempted_total,
	grand_total, status, xml_signed, response_xml, status_detail, location_url,
	ref_doc_type, ref_clave, ref_consecutive, ref_code, ref_reason, ref_date,
	notes, created_at, updated_at`

// Create persiste la cabecera del comprobante.
func (r *DocumentRepo) Create(doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	var refDocType, refClave, refConsecutive, refCode, refReason *string
	var refDate *time.Time
	if ref := doc.Reference; ref != nil {
		refDocType = nullIfEmpty(ref.DocType)
		refClave = nullIfEmpty(ref.Clave)
		refConsecutive = nullIfEmpty(ref.Consecutive)
		refCode = nullIfEmpty(ref.Code)
		refReason = nullIfEmpty(ref.Reason)
		if !ref.Date.IsZero() {
			refDate = &ref.Date
		}
	}
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`
	_, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.CompanyID, nullIfEmpty(doc.ClientID), doc.DocType, doc.Consecutive,
		doc.Sequence, nullIfEmpty(doc.Clave), doc.Date,
		doc.Currency, doc.Exchange, doc.Subtotal, doc.DiscountTotal, doc.TaxTotal,
		doc.ExemptedTotal, doc.GrandTotal, doc.Status,
		nullIfEmpty(doc.XMLSigned), nullIfEmpty(doc.ResponseXML),
		nullIfEmpty(doc.StatusDetail), nullIfEmpty(doc.LocationURL),
		refDocType, refClave, refConsecutive, refCode, refReason, refDate,
		nullIfEmpty(doc.Notes), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("consecutivo o clave ya registrados: %w", err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// CreateLine persiste una línea de detalle.
func (r *DocumentRepo) CreateLine(line *entity.DocumentLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	var exDocType, exDocTypeOther, exDocNumber, exLawName, exIssuer, exIssuerOther *string
	var exArticle, exSubsection *int
	var exIssueDate *time.Time
	if ex := line.Exemption; ex != nil {
		exDocType = nullIfEmpty(ex.DocType)
		exDocTypeOther = nullIfEmpty(ex.DocTypeOther)
		exDocNumber = nullIfEmpty(ex.DocNumber)
		exLawName = nullIfEmpty(ex.LawName)
		exIssuer = nullIfEmpty(ex.Issuer)
		exIssuerOther = nullIfEmpty(ex.IssuerOther)
		if ex.Article > 0 {
			exArticle = &ex.Article
		}
		if ex.Subsection > 0 {
			exSubsection = &ex.Subsection
		}
		if !ex.IssueDate.IsZero() {
			exIssueDate = &ex.IssueDate
		}
	}
	query := `
		INSERT INTO document_lines (id, document_id, line_number, code, detail, unit,
			quantity, unit_price, discount, tax_code, tax_rate_code, tax_rate,
			ex_doc_type, ex_doc_type_other, ex_doc_number, ex_law_name, ex_article,
			ex_subsection, ex_issuer, ex_issuer_other, ex_issue_date, ex_percentage,
			ex_purchase_pct, taxable_base, tax_amount, exempted, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23,
		        $24, $25, $26, $27)`
	var exPct, exPurchasePct any
	if line.Exemption != nil {
		exPct = line.Exemption.Percentage
		exPurchasePct = line.Exemption.PurchasePct
	}
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.DocumentID, line.LineNumber, nullIfEmpty(line.Code), line.Detail,
		line.Unit, line.Quantity, line.UnitPrice, line.Discount,
		line.TaxCode, line.TaxRateCode, line.TaxRate,
		exDocType, exDocTypeOther, exDocNumber, exLawName, exArticle,
		exSubsection, exIssuer, exIssuerOther, exIssueDate, exPct,
		exPurchasePct, line.TaxableBase, line.TaxAmount, line.Exempted, line.Total,
	)
	if err != nil {
		return fmt.Errorf("insert document line: %w", err)
	}
	return nil
}

// Update actualiza los campos del ciclo de vida del comprobante.
func (r *DocumentRepo) Update(doc *entity.Document) error {
	query := `
		UPDATE documents
		SET clave         = COALESCE($2, clave),
		    status        = $3,
		    xml_signed    = COALESCE($4, xml_signed),
		    response_xml  = COALESCE($5, response_xml),
		    status_detail = COALESCE($6, status_detail),
		    location_url  = COALESCE($7, location_url),
		    updated_at    = $8
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		doc.ID,
		nullIfEmpty(doc.Clave),
		doc.Status,
		nullIfEmpty(doc.XMLSigned),
		nullIfEmpty(doc.ResponseXML),
		nullIfEmpty(doc.StatusDetail),
		nullIfEmpty(doc.LocationURL),
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// GetByID obtiene un comprobante completo por ID (sin líneas).
func (r *DocumentRepo) GetByID(id string) (*entity.Document, error) {
	return r.getOne(`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
}

// GetByClave obtiene un comprobante por su clave de 50 dígitos.
func (r *DocumentRepo) GetByClave(clave string) (*entity.Document, error) {
	return r.getOne(`SELECT `+documentColumns+` FROM documents WHERE clave = $1`, clave)
}

func (r *DocumentRepo) getOne(query string, arg any) (*entity.Document, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// FindByConsecutive busca por consecutivo legible dentro del emisor.
func (r *DocumentRepo) FindByConsecutive(companyID, consecutive string) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents WHERE company_id = $1 AND consecutive = $2 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, companyID, consecutive)
	if err != nil {
		return nil, fmt.Errorf("find by consecutive: %w", err)
	}
	defer rows.Close()
	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// ListByCompany lista comprobantes del emisor con paginación.
func (r *DocumentRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// GetStatus devuelve solo los campos de estado (consulta ligera para polling).
func (r *DocumentRepo) GetStatus(id string) (*entity.Document, error) {
	const query = `
		SELECT id, company_id, doc_type, status,
		       COALESCE(clave, ''), COALESCE(status_detail, '')
		FROM documents WHERE id = $1`
	var doc entity.Document
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&doc.ID, &doc.CompanyID, &doc.DocType, &doc.Status, &doc.Clave, &doc.StatusDetail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document status: %w", err)
	}
	return &doc, nil
}

// TransitionStatus cambia el estado solo si el actual no es final (CAS).
func (r *DocumentRepo) TransitionStatus(id, newStatus string) (bool, error) {
	const query = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ($3, $4, $5)`
	cmd, err := r.q.Exec(context.Background(), query, id, newStatus,
		entity.StatusAccepted, entity.StatusRejected, entity.StatusCancelled)
	if err != nil {
		return false, fmt.Errorf("transition status: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// Cancel anula un comprobante aceptado (CAS: la primera anulación gana) y
// registra en status_detail qué nota de crédito lo anuló.
func (r *DocumentRepo) Cancel(id, noteID, noteConsecutive string) (bool, error) {
	const query = `
		UPDATE documents
		SET status = $2, status_detail = $3, updated_at = now()
		WHERE id = $1 AND status = $4`
	detail := fmt.Sprintf("Anulado por nota de crédito %s (id %s)", noteConsecutive, noteID)
	cmd, err := r.q.Exec(context.Background(), query, id,
		entity.StatusCancelled, detail, entity.StatusAccepted)
	if err != nil {
		return false, fmt.Errorf("cancel document: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// GetLinesByDocumentID obtiene todas las líneas de un comprobante.
func (r *DocumentRepo) GetLinesByDocumentID(documentID string) ([]*entity.DocumentLine, error) {
	query := `
		SELECT id, document_id, line_number, COALESCE(code, ''), detail, unit,
		       quantity, unit_price, discount, tax_code, tax_rate_code, tax_rate,
		       ex_doc_type, ex_doc_type_other, ex_doc_number, ex_law_name, ex_article,
		       ex_subsection, ex_issuer, ex_issuer_other, ex_issue_date, ex_percentage,
		       ex_purchase_pct, taxable_base, tax_amount, exempted, total
		FROM document_lines WHERE document_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(context.Background(), query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.DocumentLine
	for rows.Next() {
		var l entity.DocumentLine
		var exDocType, exDocTypeOther, exDocNumber, exLawName, exIssuer, exIssuerOther *string
		var exArticle, exSubsection *int
		var exIssueDate *time.Time
		var exPct, exPurchasePct *decimal.Decimal
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.LineNumber, &l.Code, &l.Detail, &l.Unit,
			&l.Quantity, &l.UnitPrice, &l.Discount, &l.TaxCode, &l.TaxRateCode, &l.TaxRate,
			&exDocType, &exDocTypeOther, &exDocNumber, &exLawName, &exArticle,
			&exSubsection, &exIssuer, &exIssuerOther, &exIssueDate, &exPct,
			&exPurchasePct, &l.TaxableBase, &l.TaxAmount, &l.Exempted, &l.Total); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		if exDocType != nil || exDocNumber != nil {
			ex := &entity.Exemption{}
			if exDocType != nil {
				ex.DocType = *exDocType
			}
			if exDocTypeOther != nil {
				ex.DocTypeOther = *exDocTypeOther
			}
			if exDocNumber != nil {
				ex.DocNumber = *exDocNumber
			}
			if exLawName != nil {
				ex.LawName = *exLawName
			}
			if exArticle != nil {
				ex.Article = *exArticle
			}
			if exSubsection != nil {
				ex.Subsection = *exSubsection
			}
			if exIssuer != nil {
				ex.Issuer = *exIssuer
			}
			if exIssuerOther != nil {
				ex.IssuerOther = *exIssuerOther
			}
			if exIssueDate != nil {
				ex.IssueDate = *exIssueDate
			}
			if exPct != nil {
				ex.Percentage = *exPct
			}
			if exPurchasePct != nil {
				ex.PurchasePct = *exPurchasePct
			}
			l.Exemption = ex
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// scanDocument lee una fila con documentColumns en su orden.
func scanDocument(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var clientID, clave, xmlSigned, responseXML, statusDetail, locationURL, notes *string
	var refDocType, refClave, refConsecutive, refCode, refReason *string
	var refDate *time.Time
	err := row.Scan(
		&doc.ID, &doc.CompanyID, &clientID, &doc.DocType, &doc.Consecutive, &doc.Sequence,
		&clave, &doc.Date, &doc.Currency, &doc.Exchange, &doc.Subtotal, &doc.DiscountTotal,
		&doc.TaxTotal, &doc.ExemptedTotal, &doc.GrandTotal, &doc.Status,
		&xmlSigned, &responseXML, &statusDetail, &locationURL,
		&refDocType, &refClave, &refConsecutive, &refCode, &refReason, &refDate,
		&notes, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ClientID = deref(clientID)
	doc.Clave = deref(clave)
	doc.XMLSigned = deref(xmlSigned)
	doc.ResponseXML = deref(responseXML)
	doc.StatusDetail = deref(statusDetail)
	doc.LocationURL = deref(locationURL)
	doc.Notes = deref(notes)
	if refDocType != nil || refClave != nil || refConsecutive != nil {
		ref := &entity.Reference{
			DocType:     deref(refDocType),
			Clave:       deref(refClave),
			Consecutive: deref(refConsecutive),
			Code:        deref(refCode),
			Reason:      deref(refReason),
		}
		if refDate != nil {
			ref.Date = *refDate
		}
		doc.Reference = ref
	}
	return &doc, nil
}

func deref(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
