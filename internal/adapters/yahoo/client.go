package yahoo

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

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://query1.finance.yahoo.com"

	// Yahoo no documenta límites; 5/s con burst 2 evita los 429 en batches de 200 tickers.
	defaultRatePerSec = 5
	defaultBurst      = 2
	defaultTimeout    = 10 * time.Second

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	userAgent = "Mozilla/5.0 (compatible; optsniper/1.0)"
)

// StatusError es una respuesta HTTP no exitosa de la API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// ClientConfig contiene la configuración del client. Los valores cero usan los defaults.
type ClientConfig struct {
	BaseURL    string
	RatePerSec float64
	Timeout    time.Duration
}

// Client es el HTTP client de Yahoo Finance con rate limiting, retries y circuit breaker.
//
// El breaker salta tras 3 fallos consecutivos (o >5% sobre 20+ requests):
// con el proveedor caído el resto de tickers falla al instante en vez de
// esperar los retries de cada uno. Los 4xx (p. ej. ticker desconocido) no cuentan.
type Client struct {
	http      *http.Client
	base      string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	retryWait time.Duration
}

// NewClient crea un Client. BaseURL vacío usa el endpoint de producción.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		base:      cfg.BaseURL,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), defaultBurst),
		breaker:   newBreaker("yahoo"),
		retryWait: baseRetryWait,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	st.IsSuccessful = func(err error) bool {
		if err == nil || errors.Is(err, context.Canceled) {
			return true
		}
		var se *StatusError
		return errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
	}
	return gobreaker.NewCircuitBreaker(st)
}

// get hace un GET con breaker, rate limiting y retries, y decodifica el JSON en out.
func (c *Client) get(ctx context.Context, url string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doWithRetry(ctx, func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", userAgent)
			return c.http.Do(req)
		}, out)
	})
	return err
}

// doWithRetry ejecuta la función con backoff exponencial, respetando el contexto.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return &StatusError{Code: resp.StatusCode, Body: fmt.Sprintf("after %d retries", maxRetries)}
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				slog.Warn("rate limited by API", "attempt", attempt+1)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: string(body)}
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
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
