// Package secrets implementa la frontera de desencriptación de material
// sensible (credenciales ATV y certificados). Los datos viajan y se almacenan
// como AES-256-GCM sobre una llave derivada con PBKDF2-SHA256; el formato del
// blob es base64(salt[16] | nonce[12] | ciphertext).
//
// La desencriptación produce un Handle opaco que nunca se loggea ni serializa.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength  = 16
	nonceLength = 12
	keyLength   = 32
	iterations  = 100_000
)

// Vault encripta y desencripta con la llave maestra de la aplicación.
type Vault struct {
	masterKey string
}

// NewVault crea la frontera con la llave maestra (MASTER_ENCRYPTION_KEY).
func NewVault(masterKey string) (*Vault, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("secrets: llave maestra vacía")
	}
	return &Vault{masterKey: masterKey}, nil
}

// Encrypt encripta plaintext y devuelve el blob en base64.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("secrets: generar salt: %w", err)
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: generar nonce: %w", err)
	}

	gcm, err := v.cipherFor(salt)
	if err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, saltLength+nonceLength+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt abre un blob base64 y devuelve un Handle opaco con el plaintext.
func (v *Vault) Decrypt(encoded string) (*Handle, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secrets: blob no es base64 válido: %w", err)
	}
	if len(blob) < saltLength+nonceLength+1 {
		return nil, fmt.Errorf("secrets: blob demasiado corto (%d bytes)", len(blob))
	}
	salt := blob[:saltLength]
	nonce := blob[saltLength : saltLength+nonceLength]
	sealed := blob[saltLength+nonceLength:]

	gcm, err := v.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("secrets: desencriptar: llave maestra o blob incorrectos")
	}
	return &Handle{value: plaintext}, nil
}

func (v *Vault) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(v.masterKey), salt, iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: inicializar AES: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: inicializar GCM: %w", err)
	}
	return gcm, nil
}

// Handle envuelve material sensible ya desencriptado. Las representaciones
// textuales siempre se redactan para que un log accidental no exponga el valor.
type Handle struct {
	value []byte
}

// Bytes devuelve el material en claro. Solo los consumidores del motor
// (firmador y cliente de Hacienda) deben llamarlo.
func (h *Handle) Bytes() []byte {
	if h == nil {
		return nil
	}
	return h.value
}

// String implementa fmt.Stringer y siempre redacta.
func (h *Handle) String() string { return "[redacted]" }

// GoString evita fugas con %#v.
func (h *Handle) GoString() string { return "secrets.Handle{[redacted]}" }

// MarshalJSON evita que un Handle termine serializado en una respuesta HTTP.
func (h *Handle) MarshalJSON() ([]byte, error) {
	return []byte(`"[redacted]"`), nil
}

// Wipe sobreescribe el material en memoria una vez usado.
func (h *Handle) Wipe() {
	if h == nil {
		return
	}
	for i := range h.value {
		h.value[i] = 0
	}
	h.value = nil
}
