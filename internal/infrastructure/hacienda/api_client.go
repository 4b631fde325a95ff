package hacienda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invosell/factura-api/internal/domain"
)

// ── Cliente del API de recepción ───────────────────────────────────────────────

// SubmitResult resultado de la entrega al API de recepción.
type SubmitResult struct {
	StatusCode int
	Location   string // URL de consulta de estado devuelta en el header Location
}

// APIClient habla con el API REST de recepción de comprobantes.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient construye el cliente del API de recepción.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit envía el comprobante firmado (en base64 dentro del payload).
// El API responde 200, 201 o 202 cuando lo recibe; la validación es asíncrona
// y se consulta luego con CheckStatus.
func (c *APIClient) Submit(ctx context.Context, token string, payload *ReceptionPayload) (*SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("recepcion: serializar payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recepcion",
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("recepcion: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: recepcion: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusOK,
		resp.StatusCode == http.StatusCreated,
		resp.StatusCode == http.StatusAccepted:
		return &SubmitResult{
			StatusCode: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
		}, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: recepcion: token rechazado (401)", domain.ErrUnauthorized)

	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: recepcion devolvió %d", domain.ErrTransient, resp.StatusCode)

	default:
		detail := c.errorDetail(resp, rawBody)
		return nil, fmt.Errorf("recepcion devolvió %d: %s", resp.StatusCode, detail)
	}
}

// CheckStatus consulta el estado de validación de un comprobante por su clave.
func (c *APIClient) CheckStatus(ctx context.Context, token, clave string) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recepcion/"+clave, nil)
	if err != nil {
		return nil, fmt.Errorf("recepcion: crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: recepcion: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: recepcion: leer respuesta: %v", domain.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var sr StatusResponse
		if err := json.Unmarshal(rawBody, &sr); err != nil {
			return nil, fmt.Errorf("recepcion: respuesta de estado inesperada: %w", err)
		}
		return &sr, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: clave %s no registrada en recepción", domain.ErrNotFound, clave)

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: recepcion: token rechazado (401)", domain.ErrUnauthorized)

	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: recepcion devolvió %d", domain.ErrTransient, resp.StatusCode)

	default:
		return nil, fmt.Errorf("recepcion devolvió %d: %s", resp.StatusCode, string(rawBody))
	}
}

// errorDetail extrae un mensaje legible del cuerpo de error, cayendo al raw.
func (c *APIClient) errorDetail(resp *http.Response, rawBody []byte) string {
	if h := resp.Header.Get("X-Error-Cause"); h != "" {
		return h
	}
	var parsed map[string]any
	if json.Unmarshal(rawBody, &parsed) == nil {
		if msg, ok := parsed["DetalleMensaje"].(string); ok && msg != "" {
			return msg
		}
	}
	return string(rawBody)
}
