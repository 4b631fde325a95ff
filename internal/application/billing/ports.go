package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/invosell/factura-api/internal/domain/entity"
	"github.com/invosell/factura-api/internal/domain/repository"
	infrahacienda "github.com/invosell/factura-api/internal/infrastructure/hacienda"
	"github.com/invosell/factura-api/pkg/secrets"
)

// TxRunner ejecuta una función dentro de una transacción con los repos de
// facturación. La reserva de consecutivo y el insert del comprobante deben
// compartir tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		docRepo repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		clientRepo repository.ClientRepository,
	) error) error
}

// TokenProvider obtiene tokens OAuth del IDP con las credenciales ATV del emisor.
type TokenProvider interface {
	Token(ctx context.Context, username, password string) (string, error)
}

// Submitter define el puerto de salida hacia el API de recepción.
// La implementación concreta usa REST; para tests se puede inyectar un mock.
type Submitter interface {
	Submit(ctx context.Context, token string, payload *infrahacienda.ReceptionPayload) (*infrahacienda.SubmitResult, error)
	CheckStatus(ctx context.Context, token, clave string) (*infrahacienda.StatusResponse, error)
}

// DocumentBuilder ensambla el XML v4.4 de un comprobante.
type DocumentBuilder interface {
	Build(ctx *infrahacienda.BuildContext) ([]byte, error)
}

// SecretOpener abre material encriptado (credenciales ATV, keystore, PIN).
type SecretOpener interface {
	Decrypt(encoded string) (*secrets.Handle, error)
}

// RateProvider devuelve el tipo de cambio de venta CRC por USD.
type RateProvider interface {
	SellRate(ctx context.Context) (decimal.Decimal, error)
}

// Notifier envía el comprobante al receptor (correo con XML y PDF adjuntos).
type Notifier interface {
	SendDocument(to, subject, body string, attachments map[string][]byte) error
}

// DocumentPDFGenerator genera la representación gráfica del comprobante.
type DocumentPDFGenerator interface {
	GenerateDocumentPDF(ctx context.Context, doc *entity.Document, company *entity.Company, client *entity.Client) ([]byte, error)
}
