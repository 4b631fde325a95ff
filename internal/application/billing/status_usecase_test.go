package billing

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invosell/factura-api/internal/domain"
	"github.com/invosell/factura-api/internal/domain/entity"
	infrahacienda "github.com/invosell/factura-api/internal/infrastructure/hacienda"
	pkghacienda "github.com/invosell/factura-api/pkg/hacienda"
	"github.com/invosell/factura-api/pkg/logger"
	"github.com/invosell/factura-api/pkg/secrets"
)

// ─────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────

type fakeDocRepo struct {
	docs       map[string]*entity.Document
	byClave    map[string]*entity.Document
	byConsec   map[string][]*entity.Document
	consecErr  error
	casBlocked bool // simula otro proceso que ya fijó un estado final

	cancelCalls []string
	updated     *entity.Document
}

func newFakeDocRepo(docs ...*entity.Document) *fakeDocRepo {
	r := &fakeDocRepo{
		docs:     map[string]*entity.Document{},
		byClave:  map[string]*entity.Document{},
		byConsec: map[string][]*entity.Document{},
	}
	for _, d := range docs {
		r.docs[d.ID] = d
		if d.Clave != "" {
			r.byClave[d.Clave] = d
		}
		if d.Consecutive != "" {
			r.byConsec[d.Consecutive] = append(r.byConsec[d.Consecutive], d)
		}
	}
	return r
}

func (r *fakeDocRepo) Create(doc *entity.Document) error           { r.docs[doc.ID] = doc; return nil }
func (r *fakeDocRepo) CreateLine(line *entity.DocumentLine) error  { return nil }
func (r *fakeDocRepo) Update(doc *entity.Document) error           { r.updated = doc; return nil }
func (r *fakeDocRepo) GetByID(id string) (*entity.Document, error) { return r.docs[id], nil }
func (r *fakeDocRepo) GetByClave(clave string) (*entity.Document, error) {
	return r.byClave[clave], nil
}
func (r *fakeDocRepo) GetLinesByDocumentID(string) ([]*entity.DocumentLine, error) { return nil, nil }
func (r *fakeDocRepo) ListByCompany(string, int, int) ([]*entity.Document, error) { return nil, nil }
func (r *fakeDocRepo) FindByConsecutive(companyID, consecutive string) ([]*entity.Document, error) {
	if r.consecErr != nil {
		return nil, r.consecErr
	}
	return r.byConsec[consecutive], nil
}
func (r *fakeDocRepo) GetStatus(id string) (*entity.Document, error) { return r.docs[id], nil }
func (r *fakeDocRepo) TransitionStatus(id, newStatus string) (bool, error) {
	if r.casBlocked {
		return false, nil
	}
	if d, ok := r.docs[id]; ok {
		d.Status = newStatus
	}
	return true, nil
}
func (r *fakeDocRepo) Cancel(id, noteID, noteConsecutive string) (bool, error) {
	r.cancelCalls = append(r.cancelCalls, id)
	d, ok := r.docs[id]
	if !ok || d.Status != entity.StatusAccepted {
		return false, nil
	}
	d.Status = entity.StatusCancelled
	d.StatusDetail = fmt.Sprintf("Anulado por nota de crédito %s (id %s)", noteConsecutive, noteID)
	return true, nil
}

type fakeCompanyRepo struct{ company *entity.Company }

func (r *fakeCompanyRepo) Create(*entity.Company) error { return nil }
func (r *fakeCompanyRepo) GetByID(id string) (*entity.Company, error) {
	if r.company != nil && r.company.ID == id {
		return r.company, nil
	}
	return nil, nil
}
func (r *fakeCompanyRepo) GetByCedula(string) (*entity.Company, error)  { return nil, nil }
func (r *fakeCompanyRepo) Update(*entity.Company) error                 { return nil }
func (r *fakeCompanyRepo) UpdateCredentials(*entity.Company) error      { return nil }
func (r *fakeCompanyRepo) List(int, int) ([]*entity.Company, error)     { return nil, nil }
func (r *fakeCompanyRepo) Delete(string) error                          { return nil }

type fakeClientRepo struct{ clients map[string]*entity.Client }

func (r *fakeClientRepo) Create(*entity.Client) error { return nil }
func (r *fakeClientRepo) GetByID(id string) (*entity.Client, error) {
	return r.clients[id], nil
}
func (r *fakeClientRepo) GetByCedula(string, string) (*entity.Client, error)      { return nil, nil }
func (r *fakeClientRepo) Update(*entity.Client) error                             { return nil }
func (r *fakeClientRepo) ListByCompany(string, int, int) ([]*entity.Client, error) { return nil, nil }
func (r *fakeClientRepo) Delete(string) error                                     { return nil }

type fakeTokens struct{ calls int }

func (f *fakeTokens) Token(ctx context.Context, username, password string) (string, error) {
	f.calls++
	return "token-de-prueba", nil
}

type fakeSubmitter struct {
	status     *infrahacienda.StatusResponse
	statusErr  error
	checkCalls int
}

func (f *fakeSubmitter) Submit(context.Context, string, *infrahacienda.ReceptionPayload) (*infrahacienda.SubmitResult, error) {
	return nil, fmt.Errorf("no usado en este test")
}
func (f *fakeSubmitter) CheckStatus(context.Context, string, string) (*infrahacienda.StatusResponse, error) {
	f.checkCalls++
	return f.status, f.statusErr
}

type sentMail struct {
	to          string
	subject     string
	attachments map[string][]byte
}

type fakeNotifier struct{ sent []sentMail }

func (f *fakeNotifier) SendDocument(to, subject, body string, attachments map[string][]byte) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, attachments: attachments})
	return nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func testVault(t *testing.T) *secrets.Vault {
	t.Helper()
	vault, err := secrets.NewVault("llave-maestra-de-prueba")
	require.NoError(t, err)
	return vault
}

func companyWithATV(t *testing.T, vault *secrets.Vault) *entity.Company {
	t.Helper()
	user, err := vault.Encrypt([]byte("cpf-01-1234-5678@stag.comprobanteselectronicos.go.cr"))
	require.NoError(t, err)
	pass, err := vault.Encrypt([]byte("contraseña-atv"))
	require.NoError(t, err)
	return &entity.Company{
		ID:          "co-1",
		Name:        "Servicios Ticos S.A.",
		Cedula:      "3101123456",
		IDType:      "02",
		ATVUser:     user,
		ATVPassword: pass,
	}
}

func claveDePrueba(t *testing.T, consecutive string, docType string) string {
	t.Helper()
	clave, err := pkghacienda.GenerateClave(pkghacienda.ClaveParams{
		Country:      "506",
		Date:         time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		IssuerID:     "3101123456",
		DocType:      docType,
		Consecutive:  consecutive,
		Situation:    "1",
		SecurityCode: "12345678",
	})
	require.NoError(t, err)
	return clave
}

func nuevaUC(docRepo *fakeDocRepo, companyRepo *fakeCompanyRepo, clientRepo *fakeClientRepo,
	submitter *fakeSubmitter, vault *secrets.Vault, notifier Notifier) *StatusUseCase {
	return NewStatusUseCase(docRepo, companyRepo, clientRepo,
		&fakeTokens{}, submitter, vault, notifier, testLogger())
}

// ─────────────────────────────────────────────
// Consulta de estado
// ─────────────────────────────────────────────

func TestCheckStatus_EstadoFinalNoConsultaAPI(t *testing.T) {
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", Status: entity.StatusAccepted, Clave: "x"}
	submitter := &fakeSubmitter{}
	uc := nuevaUC(newFakeDocRepo(doc), &fakeCompanyRepo{}, &fakeClientRepo{}, submitter, testVault(t), nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, out.Status)
	assert.True(t, out.Final)
	assert.Zero(t, submitter.checkCalls, "un estado final no debe tocar el API")
}

func TestCheckStatus_SinEnviarDevuelveEstadoActual(t *testing.T) {
	for _, status := range []string{entity.StatusDraft, entity.StatusSigned, entity.StatusError} {
		doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", Status: status}
		submitter := &fakeSubmitter{}
		uc := nuevaUC(newFakeDocRepo(doc), &fakeCompanyRepo{}, &fakeClientRepo{}, submitter, testVault(t), nil)

		out, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
		require.NoError(t, err, status)
		assert.Equal(t, status, out.Status)
		assert.False(t, out.Final)
		assert.Zero(t, submitter.checkCalls)
	}
}

func TestCheckStatus_OtraEmpresaProhibido(t *testing.T) {
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", Status: entity.StatusSubmitted}
	uc := nuevaUC(newFakeDocRepo(doc), &fakeCompanyRepo{}, &fakeClientRepo{}, &fakeSubmitter{}, testVault(t), nil)

	_, err := uc.CheckStatus(context.Background(), "co-otra", "doc-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCheckStatus_AceptadoPersisteRespuesta(t *testing.T) {
	vault := testVault(t)
	company := companyWithATV(t, vault)
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", DocType: pkghacienda.DocTypeFactura,
		Status: entity.StatusSubmitted, Clave: claveDePrueba(t, "FE-0000000151", "01")}
	repo := newFakeDocRepo(doc)

	mensaje := `<MensajeHacienda><Mensaje>1</Mensaje></MensajeHacienda>`
	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{
		IndEstado:      "aceptado",
		RespuestaXML:   base64.StdEncoding.EncodeToString([]byte(mensaje)),
		DetalleMensaje: "Comprobante aceptado",
	}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: company}, &fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, out.Status)
	assert.True(t, out.Final)

	require.NotNil(t, repo.updated)
	assert.Equal(t, mensaje, repo.updated.ResponseXML, "la respuesta se persiste decodificada")
	assert.Equal(t, "Comprobante aceptado", repo.updated.StatusDetail)
}

func TestCheckStatus_RechazadoEsFinal(t *testing.T) {
	vault := testVault(t)
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", DocType: pkghacienda.DocTypeFactura,
		Status: entity.StatusProcessing, Clave: "clave"}
	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{
		IndEstado:      "rechazado",
		DetalleMensaje: "Clave inválida",
	}}
	uc := nuevaUC(newFakeDocRepo(doc), &fakeCompanyRepo{company: companyWithATV(t, vault)},
		&fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, out.Status)
	assert.True(t, out.Final)
	assert.Equal(t, "Clave inválida", out.StatusDetail)
}

func TestCheckStatus_TransitorioConservaEstado(t *testing.T) {
	vault := testVault(t)
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", Status: entity.StatusSubmitted, Clave: "clave"}
	repo := newFakeDocRepo(doc)
	submitter := &fakeSubmitter{statusErr: fmt.Errorf("consulta: %w", domain.ErrTransient)}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err, "un fallo transitorio no es un error del caso de uso")
	assert.Equal(t, entity.StatusSubmitted, out.Status)
	assert.Nil(t, repo.updated, "no debe persistirse nada")
}

func TestCheckStatus_CASPerdidoDevuelveEstadoFresco(t *testing.T) {
	vault := testVault(t)
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", Status: entity.StatusProcessing, Clave: "clave"}
	repo := newFakeDocRepo(doc)
	repo.casBlocked = true

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, out.Status, "se devuelve el estado releído, no el interpretado")
	assert.Nil(t, repo.updated, "si el CAS falla no se pisa el registro")
}

// ─────────────────────────────────────────────
// Anulación por nota de crédito aceptada
// ─────────────────────────────────────────────

func notaConReferencia(ref *entity.Reference) *entity.Document {
	return &entity.Document{
		ID:          "nc-1",
		CompanyID:   "co-1",
		DocType:     pkghacienda.DocTypeNotaCredito,
		Consecutive: "NC-0000000160",
		Status:      entity.StatusSubmitted,
		Clave:       "clave-nc",
		Reference:   ref,
	}
}

func TestCheckStatus_NotaAnulacionAceptadaAnulaPorClave(t *testing.T) {
	vault := testVault(t)
	claveFactura := claveDePrueba(t, "FE-0000000151", "01")
	factura := &entity.Document{ID: "fe-1", CompanyID: "co-1", DocType: pkghacienda.DocTypeFactura,
		Consecutive: "FE-0000000151", Clave: claveFactura, Status: entity.StatusAccepted}
	nota := notaConReferencia(&entity.Reference{DocType: "01", Clave: claveFactura, Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(factura, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, out.Status)

	require.Len(t, repo.cancelCalls, 1, "exactamente una anulación")
	assert.Equal(t, "fe-1", repo.cancelCalls[0])
	assert.Equal(t, entity.StatusCancelled, factura.Status)
	assert.Contains(t, factura.StatusDetail, "NC-0000000160", "queda rastro de la nota que anuló")
	assert.Contains(t, factura.StatusDetail, "nc-1")
}

func TestCheckStatus_ClaveDeOtroEmisorNoSeAnula(t *testing.T) {
	vault := testVault(t)
	claveAjena := claveDePrueba(t, "FE-0000000151", "01")
	facturaAjena := &entity.Document{ID: "fe-ajena", CompanyID: "co-otra", DocType: pkghacienda.DocTypeFactura,
		Consecutive: "FE-0000000151", Clave: claveAjena, Status: entity.StatusAccepted}
	nota := notaConReferencia(&entity.Reference{DocType: "01", Clave: claveAjena, Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(facturaAjena, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, out.Status)

	assert.Empty(t, repo.cancelCalls, "la clave de otro emisor no es anulable desde esta empresa")
	assert.Equal(t, entity.StatusAccepted, facturaAjena.Status)
}

func TestCheckStatus_NotaAnulacionResuelvePorConsecutivo(t *testing.T) {
	vault := testVault(t)
	factura := &entity.Document{ID: "fe-2", CompanyID: "co-1", DocType: pkghacienda.DocTypeFactura,
		Consecutive: "FE-0000000152", Status: entity.StatusAccepted}
	nota := notaConReferencia(&entity.Reference{DocType: "01", Consecutive: "FE-0000000152", Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(factura, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	_, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, factura.Status)
}

func TestCheckStatus_NotaAnulacionDerivaConsecutivoDeLaClave(t *testing.T) {
	// la clave referenciada no existe localmente, pero su bloque de consecutivo sí
	vault := testVault(t)
	factura := &entity.Document{ID: "fe-3", CompanyID: "co-1", DocType: pkghacienda.DocTypeFactura,
		Consecutive: "FE-0000000153", Status: entity.StatusAccepted}
	claveExterna := claveDePrueba(t, "FE-0000000153", "01")
	nota := notaConReferencia(&entity.Reference{DocType: "01", Clave: claveExterna, Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(factura, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	_, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, factura.Status)
}

func TestCheckStatus_ReferenciadoInexistenteNoEsFatal(t *testing.T) {
	vault := testVault(t)
	nota := notaConReferencia(&entity.Reference{DocType: "01", Consecutive: "FE-9999999999", Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	out, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err, "la nota sigue aceptada aunque el referenciado no exista aquí")
	assert.Equal(t, entity.StatusAccepted, out.Status)
	assert.Empty(t, repo.cancelCalls)
}

func TestCheckStatus_ConsecutivoAmbiguoNoAnula(t *testing.T) {
	vault := testVault(t)
	fe1 := &entity.Document{ID: "fe-a", CompanyID: "co-1", Consecutive: "FE-0000000154", Status: entity.StatusAccepted}
	fe2 := &entity.Document{ID: "fe-b", CompanyID: "co-1", Consecutive: "FE-0000000154", Status: entity.StatusAccepted}
	nota := notaConReferencia(&entity.Reference{DocType: "01", Consecutive: "FE-0000000154", Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(fe1, fe2, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	_, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Empty(t, repo.cancelCalls, "ante ambigüedad no se anula nada")
	assert.Equal(t, entity.StatusAccepted, fe1.Status)
	assert.Equal(t, entity.StatusAccepted, fe2.Status)
}

func TestCheckStatus_ReferenciadoNoAceptadoNoSeAnula(t *testing.T) {
	vault := testVault(t)
	factura := &entity.Document{ID: "fe-4", CompanyID: "co-1", Consecutive: "FE-0000000155", Status: entity.StatusRejected}
	nota := notaConReferencia(&entity.Reference{DocType: "01", Consecutive: "FE-0000000155", Code: "01", Reason: "Anulación"})
	repo := newFakeDocRepo(factura, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	_, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, factura.Status, "solo un comprobante aceptado se puede anular")
}

func TestCheckStatus_NotaCorrectivaNoAnula(t *testing.T) {
	// código "02" corrige texto: la nota se acepta pero nada se anula
	vault := testVault(t)
	factura := &entity.Document{ID: "fe-5", CompanyID: "co-1", Consecutive: "FE-0000000156", Status: entity.StatusAccepted}
	nota := notaConReferencia(&entity.Reference{DocType: "01", Consecutive: "FE-0000000156", Code: "02", Reason: "Corrige texto"})
	repo := newFakeDocRepo(factura, nota)

	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(repo, &fakeCompanyRepo{company: companyWithATV(t, vault)}, &fakeClientRepo{}, submitter, vault, nil)

	_, err := uc.CheckStatus(context.Background(), "co-1", "nc-1")
	require.NoError(t, err)
	assert.Empty(t, repo.cancelCalls)
	assert.Equal(t, entity.StatusAccepted, factura.Status)
}

// ─────────────────────────────────────────────
// Notificación al receptor
// ─────────────────────────────────────────────

func TestCheckStatus_AceptadoNotificaAlReceptor(t *testing.T) {
	vault := testVault(t)
	company := companyWithATV(t, vault)
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", ClientID: "cl-1",
		DocType: pkghacienda.DocTypeFactura, Consecutive: "FE-0000000151",
		Status: entity.StatusSubmitted, Clave: "clave-fe",
		XMLSigned: "<FacturaElectronica/>"}
	clients := &fakeClientRepo{clients: map[string]*entity.Client{
		"cl-1": {ID: "cl-1", Name: "Cliente Uno", Email: "cliente@example.com"},
	}}
	notifier := &fakeNotifier{}

	mensaje := "<MensajeHacienda/>"
	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{
		IndEstado:    "aceptado",
		RespuestaXML: base64.StdEncoding.EncodeToString([]byte(mensaje)),
	}}
	uc := nuevaUC(newFakeDocRepo(doc), &fakeCompanyRepo{company: company}, clients, submitter, vault, notifier)

	_, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	mail := notifier.sent[0]
	assert.Equal(t, "cliente@example.com", mail.to)
	assert.Contains(t, mail.subject, "FE-0000000151")
	assert.Equal(t, []byte("<FacturaElectronica/>"), mail.attachments["clave-fe.xml"])
	assert.Equal(t, []byte(mensaje), mail.attachments["clave-fe-respuesta.xml"])
}

func TestCheckStatus_SinCorreoNoNotifica(t *testing.T) {
	vault := testVault(t)
	doc := &entity.Document{ID: "doc-1", CompanyID: "co-1", ClientID: "cl-1",
		DocType: pkghacienda.DocTypeFactura, Status: entity.StatusSubmitted,
		Clave: "clave-fe", XMLSigned: "<FacturaElectronica/>"}
	clients := &fakeClientRepo{clients: map[string]*entity.Client{
		"cl-1": {ID: "cl-1", Name: "Sin Correo"},
	}}
	notifier := &fakeNotifier{}
	submitter := &fakeSubmitter{status: &infrahacienda.StatusResponse{IndEstado: "aceptado"}}
	uc := nuevaUC(newFakeDocRepo(doc), &fakeCompanyRepo{company: companyWithATV(t, vault)}, clients, submitter, vault, notifier)

	_, err := uc.CheckStatus(context.Background(), "co-1", "doc-1")
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)
}
