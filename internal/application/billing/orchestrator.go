package billing

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
	infrahacienda "github.com/invosell/factura-api/internal/infrastructure/hacienda"
	"github.com/invosell/factura-api/internal/infrastructure/hacienda/signer"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
	"github.com/invosell/factura-api/pkg/logger"
)

// Orchestrator ejecuta el ciclo de firma y envío del comprobante:
//
//	XML v4.4 → Firma XAdES-EPES → Token IDP → POST /recepcion → Update DB
//
// Corre siempre en goroutine independiente (ProcessAsync) con su propio
// context.Background() + timeout 30 s, desacoplado del ciclo HTTP.
//
// Un fallo de firma o de generación deja el comprobante en ERROR; un fallo
// transitorio de envío lo deja en SIGNED para reintentar después.
type Orchestrator struct {
	docRepo     repository.DocumentRepository
	companyRepo repository.CompanyRepository
	clientRepo  repository.ClientRepository
	builder     DocumentBuilder
	signer      pkghacienda.Signer
	tokens      TokenProvider
	submitter   Submitter
	vault       SecretOpener
	proveedor   string
	log         *logger.Logger
}

// NewOrchestrator construye el orquestador con todas sus dependencias.
func NewOrchestrator(
	docRepo repository.DocumentRepository,
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	builder DocumentBuilder,
	sgn pkghacienda.Signer,
	tokens TokenProvider,
	submitter Submitter,
	vault SecretOpener,
	proveedorSistemas string,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		docRepo:     docRepo,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		builder:     builder,
		signer:      sgn,
		tokens:      tokens,
		submitter:   submitter,
		vault:       vault,
		proveedor:   proveedorSistemas,
		log:         log,
	}
}

// ProcessAsync dispara el procesamiento en una goroutine independiente.
// documentID es el ID del comprobante ya persistido en estado DRAFT.
func (o *Orchestrator) ProcessAsync(documentID string) {
	go o.Process(documentID)
}

// Process es el núcleo síncrono del orquestador. Siempre termina persistiendo
// el estado alcanzado (SIGNED, SUBMITTED o ERROR).
func (o *Orchestrator) Process(documentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := o.log.With().Str("document_id", documentID).Logger()

	// markError fija ERROR con el detalle del problema.
	markError := func(doc *entity.Document, step, msg string) {
		doc.Status = entity.StatusError
		doc.StatusDetail = msg
		doc.UpdatedAt = time.Now()
		if err := o.docRepo.Update(doc); err != nil {
			log.Error().Err(err).Msg("no se pudo persistir el estado ERROR")
		}
		log.Error().Str("step", step).Msg(msg)
	}

	// Re-fetch datos frescos: evita data races con la goroutine HTTP.
	doc, err := o.docRepo.GetByID(documentID)
	if err != nil || doc == nil {
		log.Error().Err(err).Msg("comprobante no encontrado")
		return
	}
	if doc.Status != entity.StatusDraft {
		log.Warn().Str("status", doc.Status).Msg("estado inesperado, ya procesado, saltando")
		return
	}

	company, err := o.companyRepo.GetByID(doc.CompanyID)
	if err != nil || company == nil {
		markError(doc, "fetch-company", fmt.Sprintf("emisor %s no encontrado: %v", doc.CompanyID, err))
		return
	}

	var client *entity.Client
	if doc.ClientID != "" {
		client, err = o.clientRepo.GetByID(doc.ClientID)
		if err != nil || client == nil {
			markError(doc, "fetch-client", fmt.Sprintf("receptor %s no encontrado: %v", doc.ClientID, err))
			return
		}
	}

	lines, err := o.docRepo.GetLinesByDocumentID(documentID)
	if err != nil {
		markError(doc, "fetch-lines", fmt.Sprintf("error obteniendo líneas: %v", err))
		return
	}
	doc.Lines = doc.Lines[:0]
	for _, l := range lines {
		doc.Lines = append(doc.Lines, *l)
	}

	// Construcción del XML v4.4.
	xmlBytes, err := o.builder.Build(&infrahacienda.BuildContext{
		Document:          doc,
		Company:           company,
		Client:            client,
		ProveedorSistemas: o.proveedor,
	})
	if err != nil {
		markError(doc, "xml-build", err.Error())
		return
	}

	// Firma digital XAdES-EPES con el certificado del emisor.
	cert, err := o.loadKeystore(company)
	if err != nil {
		markError(doc, "keystore", err.Error())
		return
	}
	signedXML, err := o.signer.Sign(xmlBytes, cert)
	if err != nil {
		markError(doc, "xml-sign", err.Error())
		return
	}

	doc.XMLSigned = string(signedXML)
	doc.Status = entity.StatusSigned
	doc.UpdatedAt = time.Now()
	if err := o.docRepo.Update(doc); err != nil {
		log.Error().Err(err).Msg("error persistiendo SIGNED")
		return
	}

	// Envío al API de recepción.
	if err := o.Submit(ctx, doc, company, client); err != nil {
		log.Warn().Err(err).Msg("envío no completado")
		return
	}
	log.Info().Str("clave", doc.Clave).Msg("comprobante enviado a Hacienda")
}

// Submit obtiene el token del IDP con las credenciales ATV del emisor y envía
// el XML firmado. El estado del comprobante debe ser SIGNED.
//
// Un error transitorio (IDP o API caídos) conserva SIGNED con el detalle en
// status_detail; el comprobante puede reenviarse. Un rechazo del API (payload
// inválido, clave duplicada) deja ERROR.
func (o *Orchestrator) Submit(ctx context.Context, doc *entity.Document, company *entity.Company, client *entity.Client) error {
	atvUser, err := o.vault.Decrypt(company.ATVUser)
	if err != nil {
		return o.submitError(doc, fmt.Errorf("abrir usuario ATV: %w", err), false)
	}
	defer atvUser.Wipe()
	atvPass, err := o.vault.Decrypt(company.ATVPassword)
	if err != nil {
		return o.submitError(doc, fmt.Errorf("abrir contraseña ATV: %w", err), false)
	}
	defer atvPass.Wipe()

	token, err := o.tokens.Token(ctx, string(atvUser.Bytes()), string(atvPass.Bytes()))
	if err != nil {
		transient := errors.Is(err, domain.ErrTransient)
		return o.submitError(doc, fmt.Errorf("token IDP: %w", err), transient)
	}

	payload := &infrahacienda.ReceptionPayload{
		Clave: doc.Clave,
		Fecha: doc.Date.In(infrahacienda.CostaRica).Format("2006-01-02T15:04:05-07:00"),
		Emisor: infrahacienda.PartyID{
			TipoIdentificacion:   company.IDType,
			NumeroIdentificacion: company.Cedula,
		},
		ComprobanteXML: base64.StdEncoding.EncodeToString([]byte(doc.XMLSigned)),
	}
	if client != nil && client.Cedula != "" {
		payload.Receptor = &infrahacienda.PartyID{
			TipoIdentificacion:   client.IDType,
			NumeroIdentificacion: client.Cedula,
		}
	}

	result, err := o.submitter.Submit(ctx, token, payload)
	if err != nil {
		transient := errors.Is(err, domain.ErrTransient) || errors.Is(err, domain.ErrUnauthorized)
		return o.submitError(doc, fmt.Errorf("recepción: %w", err), transient)
	}

	doc.Status = entity.StatusSubmitted
	doc.LocationURL = result.Location
	doc.StatusDetail = ""
	doc.UpdatedAt = time.Now()
	return o.docRepo.Update(doc)
}

// submitError persiste el desenlace de un envío fallido. transient conserva
// SIGNED para reintento; el resto queda en ERROR.
func (o *Orchestrator) submitError(doc *entity.Document, cause error, transient bool) error {
	if !transient {
		doc.Status = entity.StatusError
	}
	doc.StatusDetail = cause.Error()
	doc.UpdatedAt = time.Now()
	if err := o.docRepo.Update(doc); err != nil {
		o.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo persistir el fallo de envío")
	}
	return cause
}

// loadKeystore abre el keystore encriptado del emisor, valida la vigencia del
// certificado y devuelve el par llave/certificado listo para firmar.
func (o *Orchestrator) loadKeystore(company *entity.Company) (tls.Certificate, error) {
	if company.Keystore == "" || company.KeystorePin == "" {
		return tls.Certificate{}, fmt.Errorf("el emisor no tiene certificado cargado: %w", domain.ErrInvalidKeystore)
	}
	ksHandle, err := o.vault.Decrypt(company.Keystore)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("abrir keystore: %w", err)
	}
	defer ksHandle.Wipe()
	pinHandle, err := o.vault.Decrypt(company.KeystorePin)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("abrir PIN: %w", err)
	}
	defer pinHandle.Wipe()

	p12, err := base64.StdEncoding.DecodeString(string(ksHandle.Bytes()))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: keystore no es base64", domain.ErrInvalidKeystore)
	}
	cert, err := signer.DecodeKeystore(p12, string(pinHandle.Bytes()))
	if err != nil {
		return tls.Certificate{}, err
	}
	if err := signer.CheckValidity(cert, time.Now()); err != nil {
		return tls.Certificate{}, err
	}
	return cert, nil
}
