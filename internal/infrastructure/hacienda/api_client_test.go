package hacienda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invosell/factura-api/internal/domain"
)

func payloadFixture() *ReceptionPayload {
	return &ReceptionPayload{
		Clave: "50614032600310112345600100001010000000151112345678",
		Fecha: "2026-03-14T10:30:00-06:00",
		Emisor: PartyID{
			TipoIdentificacion:   "02",
			NumeroIdentificacion: "3101123456",
		},
		ComprobanteXML: "PEZhY3R1cmFFbGVjdHJvbmljYS8+",
	}
}

func TestSubmit_AceptadoDevuelveLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/recepcion", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var got ReceptionPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "3101123456", got.Emisor.NumeroIdentificacion)
		assert.Nil(t, got.Receptor, "sin receptor el campo se omite")

		w.Header().Set("Location", srv0(r)+"/recepcion/"+got.Clave)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	res, err := c.Submit(context.Background(), "tok-123", payloadFixture())
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Contains(t, res.Location, "/recepcion/"+payloadFixture().Clave)
}

// srv0 reconstruye el origen del request para el header Location.
func srv0(r *http.Request) string {
	return "http://" + r.Host
}

func TestSubmit_TokenRechazado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	_, err := c.Submit(context.Background(), "tok-viejo", payloadFixture())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSubmit_ErrorDelServidorEsTransitorio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	_, err := c.Submit(context.Background(), "tok-123", payloadFixture())
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestSubmit_RechazoConDetalle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Error-Cause", "clave ya fue recibida")
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	_, err := c.Submit(context.Background(), "tok-123", payloadFixture())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTransient)
	assert.Contains(t, err.Error(), "clave ya fue recibida")
}

func TestCheckStatus_DevuelveRespuesta(t *testing.T) {
	clave := payloadFixture().Clave
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recepcion/"+clave, r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(StatusResponse{
			Clave:        clave,
			IndEstado:    "aceptado",
			RespuestaXML: "PE1lbnNhamVIYWNpZW5kYS8+",
		})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	sr, err := c.CheckStatus(context.Background(), "tok-123", clave)
	require.NoError(t, err)
	assert.Equal(t, "aceptado", sr.IndEstado)
	assert.Equal(t, clave, sr.Clave)
	assert.NotEmpty(t, sr.RespuestaXML)
}

func TestCheckStatus_ClaveNoRegistrada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	_, err := c.CheckStatus(context.Background(), "tok-123", "clave-inexistente")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckStatus_ErrorDelServidorEsTransitorio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	_, err := c.CheckStatus(context.Background(), "tok-123", "clave")
	assert.ErrorIs(t, err, domain.ErrTransient)
}
