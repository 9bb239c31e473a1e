// Package manifold es el adaptador HTTP de la API pública de Manifold.
package manifold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api.manifold.markets"

	// Rate limit al 60% del límite documentado: 500 req/min por IP → 300/min → 5/s
	apiRatePerSec = 5
	apiBurst      = 10

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// statusError es una respuesta 4xx no reintentable.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.code, e.body)
}

// isNotFound devuelve true si err es un 404 de la API.
func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

// Client es el HTTP client de Manifold con rate limiting y retries.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client con el base URL dado.
// Si base está vacío usa la API de producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultAPIBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(apiRatePerSec, apiBurst),
	}
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &statusError{code: resp.StatusCode, body: string(body)}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
