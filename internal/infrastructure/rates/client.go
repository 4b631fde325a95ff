// Package rates consulta el tipo de cambio de referencia del dólar.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Client consulta el indicador tc/dolar y cachea el resultado unos minutos.
type Client struct {
	url        string
	httpClient *http.Client
	cacheTTL   time.Duration

	mu        sync.Mutex
	cached    decimal.Decimal
	fetchedAt time.Time
}

// NewClient construye el cliente del tipo de cambio.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   5 * time.Minute,
	}
}

type tcResponse struct {
	Venta struct {
		Fecha string  `json:"fecha"`
		Valor float64 `json:"valor"`
	} `json:"venta"`
	Compra struct {
		Fecha string  `json:"fecha"`
		Valor float64 `json:"valor"`
	} `json:"compra"`
}

// SellRate devuelve el tipo de cambio de venta CRC por USD.
// El llamador decide qué hacer si falla; los comprobantes en colones no lo usan.
func (c *Client) SellRate(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.cacheTTL {
		rate := c.cached
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tipo de cambio: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tipo de cambio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("tipo de cambio: el indicador devolvió %d", resp.StatusCode)
	}
	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, fmt.Errorf("tipo de cambio: leer respuesta: %w", err)
	}

	var tc tcResponse
	if err := json.Unmarshal(rawBody, &tc); err != nil {
		return decimal.Zero, fmt.Errorf("tipo de cambio: respuesta inesperada: %w", err)
	}
	if tc.Venta.Valor <= 0 {
		return decimal.Zero, fmt.Errorf("tipo de cambio: valor de venta inválido (%f)", tc.Venta.Valor)
	}

	rate := decimal.NewFromFloat(tc.Venta.Valor)
	c.mu.Lock()
	c.cached = rate
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return rate, nil
}
