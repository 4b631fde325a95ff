package secrets

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// Encrypt / Decrypt
// ─────────────────────────────────────────────

func TestVault_RoundTrip(t *testing.T) {
	vault, err := NewVault("llave-maestra-de-prueba")
	require.NoError(t, err)

	blob, err := vault.Encrypt([]byte("pin-del-certificado-1234"))
	require.NoError(t, err)

	handle, err := vault.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "pin-del-certificado-1234", string(handle.Bytes()))
}

func TestVault_BlobsDistintosPorLlamada(t *testing.T) {
	vault, _ := NewVault("llave")

	a, err := vault.Encrypt([]byte("mismo contenido"))
	require.NoError(t, err)
	b, err := vault.Encrypt([]byte("mismo contenido"))
	require.NoError(t, err)

	// salt y nonce aleatorios por operación
	assert.NotEqual(t, a, b)
}

func TestVault_LlaveIncorrecta(t *testing.T) {
	buena, _ := NewVault("llave-correcta")
	mala, _ := NewVault("llave-incorrecta")

	blob, err := buena.Encrypt([]byte("secreto"))
	require.NoError(t, err)

	_, err = mala.Decrypt(blob)
	assert.Error(t, err)
}

func TestVault_BlobInvalido(t *testing.T) {
	vault, _ := NewVault("llave")

	_, err := vault.Decrypt("esto no es base64 %%%")
	assert.Error(t, err)

	corto := base64.StdEncoding.EncodeToString([]byte("corto"))
	_, err = vault.Decrypt(corto)
	assert.Error(t, err)
}

func TestNewVault_LlaveVacia(t *testing.T) {
	_, err := NewVault("")
	assert.Error(t, err)
}

// ─────────────────────────────────────────────
// Handle opaco
// ─────────────────────────────────────────────

func TestHandle_NuncaSeExpone(t *testing.T) {
	vault, _ := NewVault("llave")
	blob, _ := vault.Encrypt([]byte("super-secreto"))
	handle, err := vault.Decrypt(blob)
	require.NoError(t, err)

	assert.NotContains(t, fmt.Sprintf("%v", handle), "super-secreto")
	assert.NotContains(t, fmt.Sprintf("%s", handle), "super-secreto")
	assert.NotContains(t, fmt.Sprintf("%#v", handle), "super-secreto")

	out, err := json.Marshal(handle)
	require.NoError(t, err)
	assert.Equal(t, `"[redacted]"`, string(out))
}

func TestHandle_Wipe(t *testing.T) {
	vault, _ := NewVault("llave")
	blob, _ := vault.Encrypt([]byte("efímero"))
	handle, _ := vault.Decrypt(blob)

	handle.Wipe()
	assert.Nil(t, handle.Bytes())
}
