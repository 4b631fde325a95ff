package repository

import "github.com/invosell/factura-api/internal/domain/entity"

// DocumentRepository define el puerto de persistencia para comprobantes y líneas.
type DocumentRepository interface {
	Create(doc *entity.Document) error
	CreateLine(line *entity.DocumentLine) error
	// Update actualiza los campos del ciclo de vida:
	// clave, status, xml_signed, response_xml, status_detail, location_url.
	Update(doc *entity.Document) error
	GetByID(id string) (*entity.Document, error)
	GetByClave(clave string) (*entity.Document, error)
	GetLinesByDocumentID(documentID string) ([]*entity.DocumentLine, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Document, error)
	// FindByConsecutive busca por consecutivo legible dentro de un emisor.
	// Devuelve todos los que coinciden; el llamador decide qué hacer si hay varios.
	FindByConsecutive(companyID, consecutive string) ([]*entity.Document, error)
	// GetStatus devuelve solo los campos de estado (ligero, para polling).
	GetStatus(id string) (*entity.Document, error)
	// TransitionStatus cambia el estado solo si el actual no es final.
	// Devuelve false cuando otro proceso ya fijó un estado final.
	TransitionStatus(id, newStatus string) (bool, error)
	// Cancel marca como anulado un comprobante aceptado y deja rastro de la
	// nota de crédito que lo anuló (id y consecutivo) en status_detail.
	// Devuelve false si no estaba en ACCEPTED (ya anulado, u otro estado).
	Cancel(id, noteID, noteConsecutive string) (bool, error)
}
