// Carga del material de firma desde un keystore PKCS#12 (.p12).

package signer

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/invosell/factura-api/internal/domain"
)

// DecodeKeystore decodifica el .p12 y devuelve certificado con llave privada.
// Distingue un PIN incorrecto (domain.ErrInvalidPassphrase) de un archivo
// corrupto o de otro formato (domain.ErrInvalidKeystore).
func DecodeKeystore(p12 []byte, pin string) (tls.Certificate, error) {
	if len(p12) == 0 {
		return tls.Certificate{}, fmt.Errorf("%w: keystore vacío", domain.ErrInvalidKeystore)
	}
	priv, cert, err := pkcs12.Decode(p12, pin)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return tls.Certificate{}, fmt.Errorf("%w: %v", domain.ErrInvalidPassphrase, err)
		}
		return tls.Certificate{}, fmt.Errorf("%w: %v", domain.ErrInvalidKeystore, err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// CheckValidity verifica que el certificado esté dentro de su ventana de
// vigencia antes de firmar.
func CheckValidity(cert tls.Certificate, now time.Time) error {
	if cert.Leaf == nil {
		return fmt.Errorf("%w: certificado sin hoja parseada", domain.ErrInvalidKeystore)
	}
	if now.Before(cert.Leaf.NotBefore) || now.After(cert.Leaf.NotAfter) {
		return fmt.Errorf("%w: vigencia %s a %s", domain.ErrExpiredCertificate,
			cert.Leaf.NotBefore.Format("2006-01-02"), cert.Leaf.NotAfter.Format("2006-01-02"))
	}
	return nil
}

// CertDigestAndIssuerSerial devuelve el digest SHA-256 del certificado (Base64)
// y el emisor/serial para el bloque SigningCertificate de XAdES.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serialDec string) {
	h := sha256.Sum256(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serialDec = cert.SerialNumber.String()
	return digestB64, issuerName, serialDec
}
