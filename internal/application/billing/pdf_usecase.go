package billing

import (
	"context"
	"fmt"

	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de un comprobante.
// Solo se permite una vez que el comprobante tiene clave y salió de DRAFT.
type PDFUseCase struct {
	docRepo     repository.DocumentRepository
	companyRepo repository.CompanyRepository
	clientRepo  repository.ClientRepository
	generator   DocumentPDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(
	docRepo repository.DocumentRepository,
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	generator DocumentPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		docRepo:     docRepo,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		generator:   generator,
	}
}

// DownloadDocumentPDF carga el comprobante completo, verifica pertenencia y
// estado, y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el comprobante no existe.
//   - domain.ErrForbidden        si no pertenece a la empresa del token.
//   - domain.ErrInvalidInput     si sigue en DRAFT (aún sin clave firmada).
func (uc *PDFUseCase) DownloadDocumentPDF(
	ctx context.Context,
	companyID, documentID string,
) (pdfBytes []byte, filename string, err error) {
	doc, err := uc.docRepo.GetByID(documentID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener comprobante: %w", err)
	}
	if doc == nil {
		return nil, "", domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}

	if doc.Status == entity.StatusDraft || doc.Clave == "" {
		return nil, "", fmt.Errorf("%w: el comprobante está en estado %s, espere a que sea firmado antes de descargar el PDF",
			domain.ErrInvalidInput, doc.Status)
	}

	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("pdf: obtener emisor: %w", err)
	}

	var client *entity.Client
	if doc.ClientID != "" {
		client, err = uc.clientRepo.GetByID(doc.ClientID)
		if err != nil || client == nil {
			return nil, "", fmt.Errorf("pdf: obtener receptor: %w", err)
		}
	}

	lines, err := uc.docRepo.GetLinesByDocumentID(documentID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}
	doc.Lines = doc.Lines[:0]
	for _, l := range lines {
		doc.Lines = append(doc.Lines, *l)
	}

	pdfBytes, err = uc.generator.GenerateDocumentPDF(ctx, doc, company, client)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("comprobante_%s.pdf", doc.Consecutive)
	return pdfBytes, filename, nil
}
