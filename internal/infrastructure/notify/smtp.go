// Package notify envía los comprobantes aceptados por correo al receptor.
package notify

import (
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/invosell/factura-api/pkg/config"
)

// Mailer envía comprobantes (XML firmado y PDF) por SMTP.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer construye el notificador. Con configuración vacía los envíos se
// omiten sin error.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendDocument envía el comprobante al receptor con los adjuntos dados.
func (m *Mailer) SendDocument(to, subject, body string, attachments map[string][]byte) error {
	if !m.cfg.Enabled() {
		return nil
	}
	if to == "" {
		return fmt.Errorf("smtp: destinatario vacío")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	for name, content := range attachments {
		content := content
		msg.Attach(name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp: enviar correo: %w", err)
	}
	return nil
}
