// Puerto de firma digital para comprobantes XML (XAdES-EPES).

package hacienda

import "crypto/tls"

// Signer firma el XML de un comprobante y devuelve un documento nuevo con el
// nodo ds:Signature incorporado. No debe mutar el XML de entrada.
type Signer interface {
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
