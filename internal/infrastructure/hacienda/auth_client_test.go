package hacienda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invosell/factura-api/internal/domain"
)

func idpServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestToken_EmiteYCachea(t *testing.T) {
	var hits atomic.Int32
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.Form.Get("grant_type"))
		assert.Equal(t, "api-stag", r.Form.Get("client_id"))
		assert.Equal(t, "usuario@atv", r.Form.Get("username"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":300,"token_type":"bearer"}`))
	})

	c := NewIDPClient(srv.URL, "api-stag", time.Second)
	ctx := context.Background()

	tok, err := c.Token(ctx, "usuario@atv", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)

	// segunda llamada: mismo usuario, debe salir de la caché
	tok, err = c.Token(ctx, "usuario@atv", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
	assert.Equal(t, int32(1), hits.Load())
}

func TestToken_InvalidateDescartaCache(t *testing.T) {
	var hits atomic.Int32
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":300}`))
	})

	c := NewIDPClient(srv.URL, "api-stag", time.Second)
	ctx := context.Background()

	_, err := c.Token(ctx, "usuario@atv", "secreto")
	require.NoError(t, err)
	c.Invalidate("usuario@atv")
	_, err = c.Token(ctx, "usuario@atv", "secreto")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestToken_CachePorUsuario(t *testing.T) {
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, _ = w.Write([]byte(`{"access_token":"tok-` + r.Form.Get("username") + `","expires_in":300}`))
	})

	c := NewIDPClient(srv.URL, "api-stag", time.Second)
	ctx := context.Background()

	tokA, err := c.Token(ctx, "a", "x")
	require.NoError(t, err)
	tokB, err := c.Token(ctx, "b", "y")
	require.NoError(t, err)
	assert.NotEqual(t, tokA, tokB)
}

func TestToken_InvalidGrant(t *testing.T) {
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`))
	})

	c := NewIDPClient(srv.URL, "api-stag", time.Second)
	_, err := c.Token(context.Background(), "usuario@atv", "mala")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)
}

func TestToken_InvalidClient(t *testing.T) {
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Invalid client credentials"}`))
	})

	c := NewIDPClient(srv.URL, "cliente-malo", time.Second)
	_, err := c.Token(context.Background(), "usuario@atv", "secreto")
	assert.ErrorIs(t, err, domain.ErrBadClientConfig)
}

func TestToken_ErrorDelServidorEsTransitorio(t *testing.T) {
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c := NewIDPClient(srv.URL, "api-stag", time.Second)
	_, err := c.Token(context.Background(), "usuario@atv", "secreto")
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestToken_RedCaidaEsTransitorio(t *testing.T) {
	c := NewIDPClient("http://127.0.0.1:1", "api-stag", 200*time.Millisecond)
	_, err := c.Token(context.Background(), "usuario@atv", "secreto")
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestToken_RespuestaSinTokenFalla(t *testing.T) {
	srv := idpServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
	})

	c := NewIDPClient(srv.URL, "api-stag", time.Second)
	_, err := c.Token(context.Background(), "usuario@atv", "secreto")
	assert.Error(t, err)
}
