package hacienda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/invosell/factura-api/internal/domain"
)

// ── Cliente del IDP de ATV ─────────────────────────────────────────────────────

// IDPClient obtiene tokens OAuth del IDP de Hacienda con grant_type=password.
// Cachea el token por usuario hasta poco antes de su expiración.
type IDPClient struct {
	tokenURL   string
	clientID   string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cachedToken
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// NewIDPClient construye el cliente del IDP.
func NewIDPClient(tokenURL, clientID string, timeout time.Duration) *IDPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &IDPClient{
		tokenURL:   tokenURL,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: timeout},
		cache:      make(map[string]cachedToken),
	}
}

// Token devuelve un access token vigente para las credenciales ATV dadas.
// Errores: domain.ErrBadCredentials (invalid_grant), domain.ErrBadClientConfig
// (invalid_client) y domain.ErrTransient para fallos de red o 5xx.
func (c *IDPClient) Token(ctx context.Context, username, password string) (string, error) {
	c.mu.Lock()
	if t, ok := c.cache[username]; ok && time.Now().Before(t.expiresAt) {
		c.mu.Unlock()
		return t.token, nil
	}
	c.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.clientID)
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("idp: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: idp: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: idp: leer respuesta: %v", domain.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var tr tokenResponse
		if err := json.Unmarshal(rawBody, &tr); err != nil || tr.AccessToken == "" {
			return "", fmt.Errorf("idp: respuesta de token inesperada: %s", string(rawBody))
		}
		c.store(username, tr)
		return tr.AccessToken, nil

	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: idp devolvió %d", domain.ErrTransient, resp.StatusCode)

	default:
		var te tokenError
		_ = json.Unmarshal(rawBody, &te)
		switch te.Error {
		case "invalid_grant":
			return "", fmt.Errorf("%w: %s", domain.ErrBadCredentials, te.ErrorDescription)
		case "invalid_client":
			return "", fmt.Errorf("%w: %s", domain.ErrBadClientConfig, te.ErrorDescription)
		default:
			return "", fmt.Errorf("idp devolvió %d: %s", resp.StatusCode, string(rawBody))
		}
	}
}

func (c *IDPClient) store(username string, tr tokenResponse) {
	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl > 30*time.Second {
		ttl -= 30 * time.Second // margen para no usar un token al borde de expirar
	}
	c.mu.Lock()
	c.cache[username] = cachedToken{token: tr.AccessToken, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate descarta el token cacheado de un usuario (tras un 401 del API).
func (c *IDPClient) Invalidate(username string) {
	c.mu.Lock()
	delete(c.cache, username)
	c.mu.Unlock()
}
