package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invosell/factura-api/internal/domain/entity"
)

// CreateDocumentRequest body para POST /api/documents.
// DocType: "01" factura, "02" tiquete, "03" nota de crédito, "04" nota de débito.
type CreateDocumentRequest struct {
	DocType       string                `json:"doc_type"`
	ClientID      string                `json:"client_id,omitempty"` // obligatorio en facturas
	Currency      string                `json:"currency,omitempty"`  // CRC por defecto
	SaleCondition string                `json:"sale_condition,omitempty"`
	PaymentMeans  string                `json:"payment_means,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Reference     *ReferenceRequest     `json:"reference,omitempty"` // obligatorio en notas
	Lines         []DocumentLineRequest `json:"lines"`
}

// DocumentLineRequest línea de detalle del comprobante.
type DocumentLineRequest struct {
	Code      string              `json:"cabys_code,omitempty"`
	Detail    string              `json:"detail"`
	Unit      string              `json:"unit,omitempty"` // "Unid" por defecto
	Quantity  decimal.Decimal     `json:"quantity"`
	UnitPrice decimal.Decimal     `json:"unit_price"`
	Discount  decimal.Decimal     `json:"discount,omitempty"`
	TaxCode   string              `json:"tax_code,omitempty"`      // "01" IVA por defecto
	TaxRate   decimal.Decimal     `json:"tax_rate"`                // porcentaje, ej. 13
	RateCode  string              `json:"tax_rate_code,omitempty"` // "08" por defecto
	Exemption *ExemptionRequest   `json:"exemption,omitempty"`
}

// ExemptionRequest documento de exoneración aplicado a la línea.
type ExemptionRequest struct {
	DocType      string          `json:"doc_type"`
	DocTypeOther string          `json:"doc_type_other,omitempty"` // requerido si doc_type = "99"
	DocNumber    string          `json:"doc_number"`
	LawName      string          `json:"law_name,omitempty"`
	Article      int             `json:"article,omitempty"`
	Subsection   int             `json:"subsection,omitempty"`
	Issuer       string          `json:"issuer"`
	IssuerOther  string          `json:"issuer_other,omitempty"` // requerido si issuer = "99"
	IssueDate    string          `json:"issue_date,omitempty"`   // YYYY-MM-DD
	Percentage   decimal.Decimal `json:"percentage,omitempty"`   // vacío = 100
	PurchasePct  decimal.Decimal `json:"purchase_percentage,omitempty"`
}

// ReferenceRequest comprobante referenciado por una nota de crédito o débito.
type ReferenceRequest struct {
	DocType     string `json:"doc_type,omitempty"`
	Clave       string `json:"clave,omitempty"`
	Consecutive string `json:"consecutive,omitempty"`
	Code        string `json:"code"` // "01" anulación
	Reason      string `json:"reason"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD
}

// ToEntity convierte la línea del request al dominio.
func (l DocumentLineRequest) ToEntity() (*entity.DocumentLine, error) {
	unit := l.Unit
	if unit == "" {
		unit = "Unid"
	}
	taxCode := l.TaxCode
	if taxCode == "" {
		taxCode = "01"
	}
	rateCode := l.RateCode
	if rateCode == "" {
		rateCode = "08"
	}
	line := &entity.DocumentLine{
		Code:        l.Code,
		Detail:      l.Detail,
		Unit:        unit,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		Discount:    l.Discount,
		TaxCode:     taxCode,
		TaxRateCode: rateCode,
		TaxRate:     l.TaxRate,
	}
	if l.Exemption != nil {
		ex, err := l.Exemption.ToEntity()
		if err != nil {
			return nil, err
		}
		line.Exemption = ex
	}
	return line, nil
}

// ToEntity convierte la exoneración del request al dominio.
func (e ExemptionRequest) ToEntity() (*entity.Exemption, error) {
	ex := &entity.Exemption{
		DocType:      e.DocType,
		DocTypeOther: e.DocTypeOther,
		DocNumber:    e.DocNumber,
		LawName:      e.LawName,
		Article:      e.Article,
		Subsection:   e.Subsection,
		Issuer:       e.Issuer,
		IssuerOther:  e.IssuerOther,
		Percentage:   e.Percentage,
		PurchasePct:  e.PurchasePct,
	}
	if e.IssueDate != "" {
		t, err := time.Parse("2006-01-02", e.IssueDate)
		if err != nil {
			return nil, fmt.Errorf("fecha de exoneración inválida: %w", err)
		}
		ex.IssueDate = t
	}
	return ex, nil
}

// ToEntity convierte la referencia del request al dominio. Exige clave o
// consecutivo para poder localizar el comprobante referenciado.
func (r ReferenceRequest) ToEntity() (*entity.Reference, error) {
	if r.Clave == "" && r.Consecutive == "" {
		return nil, fmt.Errorf("la referencia requiere clave o consecutivo")
	}
	if r.Code == "" || r.Reason == "" {
		return nil, fmt.Errorf("la referencia requiere código y razón")
	}
	docType := r.DocType
	if docType == "" {
		docType = "01"
	}
	ref := &entity.Reference{
		DocType:     docType,
		Clave:       r.Clave,
		Consecutive: r.Consecutive,
		Code:        r.Code,
		Reason:      r.Reason,
	}
	if r.Date != "" {
		t, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("fecha de referencia inválida: %w", err)
		}
		ref.Date = t
	}
	return ref, nil
}

// DocumentResponse comprobante con detalle para GET /api/documents/:id.
type DocumentResponse struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"company_id"`
	ClientID      string                 `json:"client_id,omitempty"`
	ClientName    string                 `json:"client_name,omitempty"`
	DocType       string                 `json:"doc_type"`
	Consecutive   string                 `json:"consecutive"`
	Clave         string                 `json:"clave"`
	Date          string                 `json:"date"`
	Currency      string                 `json:"currency"`
	Exchange      decimal.Decimal        `json:"exchange_rate"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	DiscountTotal decimal.Decimal        `json:"discount_total"`
	TaxTotal      decimal.Decimal        `json:"tax_total"`
	ExemptedTotal decimal.Decimal        `json:"exempted_total"`
	GrandTotal    decimal.Decimal        `json:"grand_total"`
	Status        string                 `json:"status"`
	StatusDetail  string                 `json:"status_detail,omitempty"`
	Reference     *ReferenceRequest      `json:"reference,omitempty"`
	Lines         []DocumentLineResponse `json:"lines,omitempty"`
}

// DocumentLineResponse línea de detalle en la respuesta.
type DocumentLineResponse struct {
	LineNumber  int             `json:"line_number"`
	Code        string          `json:"cabys_code,omitempty"`
	Detail      string          `json:"detail"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Exempted    decimal.Decimal `json:"exempted"`
	Total       decimal.Decimal `json:"total"`
}

// NewDocumentResponse mapea la entidad a la respuesta HTTP.
func NewDocumentResponse(doc *entity.Document, clientName string) *DocumentResponse {
	resp := &DocumentResponse{
		ID:            doc.ID,
		CompanyID:     doc.CompanyID,
		ClientID:      doc.ClientID,
		ClientName:    clientName,
		DocType:       doc.DocType,
		Consecutive:   doc.Consecutive,
		Clave:         doc.Clave,
		Date:          doc.Date.Format("2006-01-02"),
		Currency:      doc.Currency,
		Exchange:      doc.Exchange,
		Subtotal:      doc.Subtotal,
		DiscountTotal: doc.DiscountTotal,
		TaxTotal:      doc.TaxTotal,
		ExemptedTotal: doc.ExemptedTotal,
		GrandTotal:    doc.GrandTotal,
		Status:        doc.Status,
		StatusDetail:  doc.StatusDetail,
	}
	if resp.Currency == "" {
		resp.Currency = "CRC"
	}
	if ref := doc.Reference; ref != nil {
		resp.Reference = &ReferenceRequest{
			DocType:     ref.DocType,
			Clave:       ref.Clave,
			Consecutive: ref.Consecutive,
			Code:        ref.Code,
			Reason:      ref.Reason,
		}
		if !ref.Date.IsZero() {
			resp.Reference.Date = ref.Date.Format("2006-01-02")
		}
	}
	for i := range doc.Lines {
		l := &doc.Lines[i]
		resp.Lines = append(resp.Lines, DocumentLineResponse{
			LineNumber:  l.LineNumber,
			Code:        l.Code,
			Detail:      l.Detail,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			TaxRate:     l.TaxRate,
			TaxableBase: l.TaxableBase,
			TaxAmount:   l.TaxAmount,
			Exempted:    l.Exempted,
			Total:       l.Total,
		})
	}
	return resp
}

// DocumentStatusDTO respuesta ligera para el endpoint de consulta de estado
// POST /api/documents/:id/status.
// El cliente consulta este endpoint hasta que status sea final
// (ACCEPTED, REJECTED o CANCELLED).
type DocumentStatusDTO struct {
	ID           string `json:"id"`
	Clave        string `json:"clave"`
	Status       string `json:"status"`
	Final        bool   `json:"final"`
	StatusDetail string `json:"status_detail,omitempty"`
}

// NewDocumentStatusDTO mapea la entidad a la respuesta de polling.
func NewDocumentStatusDTO(doc *entity.Document) *DocumentStatusDTO {
	return &DocumentStatusDTO{
		ID:           doc.ID,
		Clave:        doc.Clave,
		Status:       doc.Status,
		Final:        entity.IsFinalStatus(doc.Status),
		StatusDetail: doc.StatusDetail,
	}
}
