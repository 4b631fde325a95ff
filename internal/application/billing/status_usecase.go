package billing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/invosell/factura-api/internal/application/dto"
	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	domainhacienda "github.com/invosell/factura-api/internal/domain/hacienda"
	"github.com/invosell/factura-api/internal/domain/repository"
	infrahacienda "github.com/invosell/factura-api/internal/infrastructure/hacienda"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
	"github.com/invosell/factura-api/pkg/logger"
)

// StatusUseCase consulta el estado de un comprobante en el API de recepción,
// lo interpreta y lo persiste. Cuando una nota de crédito de anulación queda
// aceptada, anula el comprobante que referencia.
type StatusUseCase struct {
	docRepo     repository.DocumentRepository
	companyRepo repository.CompanyRepository
	clientRepo  repository.ClientRepository
	tokens      TokenProvider
	submitter   Submitter
	vault       SecretOpener
	notifier    Notifier // opcional; nil desactiva el correo al receptor
	log         *logger.Logger
}

// NewStatusUseCase construye el caso de uso.
func NewStatusUseCase(
	docRepo repository.DocumentRepository,
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	tokens TokenProvider,
	submitter Submitter,
	vault SecretOpener,
	notifier Notifier,
	log *logger.Logger,
) *StatusUseCase {
	return &StatusUseCase{
		docRepo:     docRepo,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		tokens:      tokens,
		submitter:   submitter,
		vault:       vault,
		notifier:    notifier,
		log:         log,
	}
}

// CheckStatus consulta el ind-estado del comprobante ante Hacienda y persiste
// el resultado. Es idempotente: un comprobante en estado final se devuelve tal
// cual, sin tocar el API.
func (uc *StatusUseCase) CheckStatus(ctx context.Context, companyID, documentID string) (*dto.DocumentStatusDTO, error) {
	doc, err := uc.docRepo.GetByID(documentID)
	if err != nil || doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	// Estado final: no cambia con nuevas consultas.
	if entity.IsFinalStatus(doc.Status) {
		return dto.NewDocumentStatusDTO(doc), nil
	}
	// Aún sin enviar: no hay nada que consultar.
	if doc.Status != entity.StatusSubmitted && doc.Status != entity.StatusProcessing {
		return dto.NewDocumentStatusDTO(doc), nil
	}

	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}

	resp, err := uc.query(ctx, company, doc.Clave)
	if err != nil {
		// Transitorio o aún no indexado: el estado local se conserva.
		if errors.Is(err, domain.ErrTransient) || errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("clave", doc.Clave).Msg("consulta de estado sin respuesta definitiva")
			return dto.NewDocumentStatusDTO(doc), nil
		}
		return nil, err
	}

	interp := domainhacienda.Interpret(resp.IndEstado)

	// CAS primero: si otro proceso ya fijó un estado final, no se pisa.
	changed, err := uc.docRepo.TransitionStatus(doc.ID, interp.Status)
	if err != nil {
		return nil, err
	}
	if !changed {
		fresh, err := uc.docRepo.GetStatus(doc.ID)
		if err != nil || fresh == nil {
			return nil, domain.ErrNotFound
		}
		return dto.NewDocumentStatusDTO(fresh), nil
	}

	doc.Status = interp.Status
	doc.StatusDetail = resp.DetalleMensaje
	if resp.RespuestaXML != "" {
		if decoded, err := base64.StdEncoding.DecodeString(resp.RespuestaXML); err == nil {
			doc.ResponseXML = string(decoded)
		}
	}
	doc.UpdatedAt = time.Now()
	if err := uc.docRepo.Update(doc); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("clave", doc.Clave).
		Str("ind_estado", resp.IndEstado).
		Str("status", doc.Status).
		Msg("estado actualizado")

	if doc.Status == entity.StatusAccepted {
		uc.onAccepted(doc, company)
	}
	return dto.NewDocumentStatusDTO(doc), nil
}

// query abre las credenciales ATV y consulta el estado por clave.
func (uc *StatusUseCase) query(ctx context.Context, company *entity.Company, clave string) (*infrahacienda.StatusResponse, error) {
	atvUser, err := uc.vault.Decrypt(company.ATVUser)
	if err != nil {
		return nil, fmt.Errorf("abrir usuario ATV: %w", err)
	}
	defer atvUser.Wipe()
	atvPass, err := uc.vault.Decrypt(company.ATVPassword)
	if err != nil {
		return nil, fmt.Errorf("abrir contraseña ATV: %w", err)
	}
	defer atvPass.Wipe()

	token, err := uc.tokens.Token(ctx, string(atvUser.Bytes()), string(atvPass.Bytes()))
	if err != nil {
		return nil, err
	}
	return uc.submitter.CheckStatus(ctx, token, clave)
}

// onAccepted ejecuta los efectos de la aceptación: anular el comprobante
// referenciado si la nota es de anulación, y notificar al receptor.
func (uc *StatusUseCase) onAccepted(doc *entity.Document, company *entity.Company) {
	if doc.DocType == pkghacienda.DocTypeNotaCredito && doc.Reference.IsAnnulment() {
		uc.cancelReferenced(doc)
	}
	uc.notifyReceiver(doc, company)
}

// cancelReferenced localiza el comprobante que la nota anula y lo marca
// CANCELLED. No encontrarlo no es fatal (pudo emitirse en otro sistema);
// encontrar más de uno sí es una inconsistencia.
func (uc *StatusUseCase) cancelReferenced(note *entity.Document) {
	ref := note.Reference
	log := uc.log.With().Str("note_id", note.ID).Str("ref_clave", ref.Clave).Logger()

	target, err := uc.resolveReferenced(note.CompanyID, ref)
	if err != nil {
		log.Error().Err(err).Msg("no se pudo resolver el comprobante referenciado")
		return
	}
	if target == nil {
		log.Warn().Msg("comprobante referenciado no existe en este sistema, anulación sin efecto local")
		return
	}

	cancelled, err := uc.docRepo.Cancel(target.ID, note.ID, note.Consecutive)
	if err != nil {
		log.Error().Err(err).Str("target_id", target.ID).Msg("error anulando el comprobante referenciado")
		return
	}
	if !cancelled {
		log.Warn().Str("target_id", target.ID).Str("target_status", target.Status).
			Msg("el comprobante referenciado no estaba aceptado, no se anuló")
		return
	}
	log.Info().Str("target_id", target.ID).Msg("comprobante anulado por nota de crédito aceptada")
}

// resolveReferenced busca el comprobante referenciado: primero por clave,
// después por consecutivo (el de la referencia o el derivado de la clave).
func (uc *StatusUseCase) resolveReferenced(companyID string, ref *entity.Reference) (*entity.Document, error) {
	if ref.Clave != "" {
		target, err := uc.docRepo.GetByClave(ref.Clave)
		if err != nil {
			return nil, err
		}
		if target != nil {
			// Una clave de otro emisor no es anulable desde esta empresa.
			if target.CompanyID != companyID {
				return nil, nil
			}
			return target, nil
		}
	}

	consecutive := ref.Consecutive
	if consecutive == "" && ref.Clave != "" {
		if parts, err := pkghacienda.DecodeClave(ref.Clave); err == nil && parts.Sequence != "" {
			consecutive = parts.Consecutive
		}
	}
	if consecutive == "" {
		return nil, nil
	}

	matches, err := uc.docRepo.FindByConsecutive(companyID, consecutive)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: consecutivo %s resuelve %d comprobantes",
			domain.ErrIntegrity, consecutive, len(matches))
	}
}

// notifyReceiver envía el comprobante aceptado al correo del receptor.
func (uc *StatusUseCase) notifyReceiver(doc *entity.Document, company *entity.Company) {
	if uc.notifier == nil || doc.ClientID == "" || doc.XMLSigned == "" {
		return
	}
	client, err := uc.clientRepo.GetByID(doc.ClientID)
	if err != nil || client == nil || client.Email == "" {
		return
	}
	subject := fmt.Sprintf("Comprobante electrónico %s de %s", doc.Consecutive, company.Name)
	body := fmt.Sprintf("Se adjunta el comprobante electrónico %s aceptado por Hacienda.\nClave: %s",
		doc.Consecutive, doc.Clave)
	attachments := map[string][]byte{doc.Clave + ".xml": []byte(doc.XMLSigned)}
	if doc.ResponseXML != "" {
		attachments[doc.Clave+"-respuesta.xml"] = []byte(doc.ResponseXML)
	}
	if err := uc.notifier.SendDocument(client.Email, subject, body, attachments); err != nil {
		uc.log.Warn().Err(err).Str("document_id", doc.ID).Msg("no se pudo enviar el correo al receptor")
	}
}
