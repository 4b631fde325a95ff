package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invosell/factura-api/internal/application/dto"
	"github.com/invosell/factura-api/internal/domain"
	domainbilling "github.com/invosell/factura-api/internal/domain/billing"
	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
	"github.com/invosell/factura-api/pkg/logger"
)

// CreateDocumentUseCase crea un comprobante electrónico (FE, TIQ, NC o ND):
// calcula impuestos y totales, reserva el consecutivo y la clave en una sola
// transacción y dispara el procesamiento asíncrono (firma + envío).
type CreateDocumentUseCase struct {
	txRunner    TxRunner
	companyRepo repository.CompanyRepository
	clientRepo  repository.ClientRepository
	docRepo     repository.DocumentRepository
	rates       RateProvider
	orch        *Orchestrator
	countryCode string
	log         *logger.Logger
}

// NewCreateDocumentUseCase construye el caso de uso.
func NewCreateDocumentUseCase(
	txRunner TxRunner,
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	docRepo repository.DocumentRepository,
	rates RateProvider,
	orch *Orchestrator,
	countryCode string,
	log *logger.Logger,
) *CreateDocumentUseCase {
	return &CreateDocumentUseCase{
		txRunner:    txRunner,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		docRepo:     docRepo,
		rates:       rates,
		orch:        orch,
		countryCode: countryCode,
		log:         log,
	}
}

// CreateDocument valida la solicitud, persiste el comprobante en DRAFT con su
// consecutivo y clave, y dispara la firma y el envío en segundo plano.
func (uc *CreateDocumentUseCase) CreateDocument(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	docType := in.DocType
	if docType == "" {
		docType = pkghacienda.DocTypeFactura
	}
	if !pkghacienda.ValidDocTypes[docType] || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	// La factura requiere receptor identificado; el tiquete no.
	if docType == pkghacienda.DocTypeFactura && in.ClientID == "" {
		return nil, domain.ErrInvalidInput
	}
	// Las notas siempre referencian otro comprobante.
	isNote := docType == pkghacienda.DocTypeNotaCredito || docType == pkghacienda.DocTypeNotaDebito
	if isNote && in.Reference == nil {
		return nil, domain.ErrInvalidInput
	}

	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}

	var client *entity.Client
	if in.ClientID != "" {
		client, err = uc.clientRepo.GetByID(in.ClientID)
		if err != nil || client == nil {
			return nil, domain.ErrNotFound
		}
		if client.CompanyID != companyID {
			return nil, domain.ErrForbidden
		}
	}

	// La fecha de emisión se fija en hora de Costa Rica: la clave y la
	// FechaEmision del XML deben compartir el mismo día calendario.
	now := time.Now().In(pkghacienda.CostaRica)
	doc := &entity.Document{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		ClientID:  in.ClientID,
		DocType:   docType,
		Date:      now,
		Currency:  in.Currency,
		Notes:     in.Notes,
		Status:    entity.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Exchange = uc.exchangeRate(ctx, in.Currency)

	if in.Reference != nil {
		ref, err := in.Reference.ToEntity()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		doc.Reference = ref
	}

	doc.Lines = make([]entity.DocumentLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		line, err := l.ToEntity()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		line.ID = uuid.New().String()
		line.DocumentID = doc.ID
		doc.Lines = append(doc.Lines, *line)
	}

	if err := domainbilling.CalculateDocument(doc); err != nil {
		uc.log.Warn().Err(err).Str("company_id", companyID).Msg("comprobante rechazado en validación")
		return nil, err
	}

	// Consecutivo, clave y persistencia inicial comparten transacción: si el
	// insert falla, la numeración reservada se devuelve con el rollback.
	err = uc.txRunner.Run(ctx, func(
		docRepo repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		_ repository.ClientRepository,
	) error {
		seq, err := seqRepo.Next(companyID, docType)
		if err != nil {
			return err
		}
		doc.Sequence = seq
		doc.Consecutive = pkghacienda.FormatConsecutive(docType, seq)

		clave, err := pkghacienda.GenerateClave(pkghacienda.ClaveParams{
			Country:     uc.countryCode,
			Date:        doc.Date,
			IssuerID:    company.Cedula,
			DocType:     docType,
			Consecutive: doc.Consecutive,
		})
		if err != nil {
			return err
		}
		doc.Clave = clave

		if err := docRepo.Create(doc); err != nil {
			return err
		}
		for i := range doc.Lines {
			if err := docRepo.CreateLine(&doc.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("clave", doc.Clave).
		Str("consecutive", doc.Consecutive).
		Msg("comprobante creado, iniciando firma y envío")
	uc.orch.ProcessAsync(doc.ID)

	return dto.NewDocumentResponse(doc, clientName(client)), nil
}

// exchangeRate resuelve el tipo de cambio del comprobante. USD consulta el
// indicador de venta; si el servicio falla se factura con 1 y queda en el log.
func (uc *CreateDocumentUseCase) exchangeRate(ctx context.Context, currency string) decimal.Decimal {
	if currency != "USD" {
		return decimal.NewFromInt(1)
	}
	rate, err := uc.rates.SellRate(ctx)
	if err != nil {
		uc.log.Warn().Err(err).Msg("tipo de cambio no disponible, usando 1")
		return decimal.NewFromInt(1)
	}
	return rate
}

// GetDocument obtiene un comprobante con sus líneas.
func (uc *CreateDocumentUseCase) GetDocument(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(id)
	if err != nil || doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	lines, err := uc.docRepo.GetLinesByDocumentID(id)
	if err != nil {
		return nil, err
	}
	doc.Lines = make([]entity.DocumentLine, 0, len(lines))
	for _, l := range lines {
		doc.Lines = append(doc.Lines, *l)
	}

	var client *entity.Client
	if doc.ClientID != "" {
		client, _ = uc.clientRepo.GetByID(doc.ClientID)
	}
	return dto.NewDocumentResponse(doc, clientName(client)), nil
}

// ListDocuments lista comprobantes del emisor con paginación.
func (uc *CreateDocumentUseCase) ListDocuments(ctx context.Context, companyID string, limit, offset int) ([]*dto.DocumentResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	docs, err := uc.docRepo.ListByCompany(companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.NewDocumentResponse(d, ""))
	}
	return out, nil
}

// DownloadXML devuelve el XML firmado de un comprobante ya procesado.
func (uc *CreateDocumentUseCase) DownloadXML(ctx context.Context, companyID, id string) ([]byte, string, error) {
	doc, err := uc.docRepo.GetByID(id)
	if err != nil || doc == nil {
		return nil, "", domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}
	if doc.XMLSigned == "" {
		return nil, "", domain.ErrConflict
	}
	return []byte(doc.XMLSigned), doc.Clave + ".xml", nil
}

func clientName(c *entity.Client) string {
	if c == nil {
		return ""
	}
	return c.Name
}
