package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
)

// PriceProvider obtiene el historial diario de un ticker.
type PriceProvider interface {
	// FetchPriceHistory devuelve las barras diarias entre from y to, ascendentes.
	// Puede devolver una serie vacía o corta sin error.
	FetchPriceHistory(ctx context.Context, ticker string, from, to time.Time) (domain.PriceHistory, error)
}

// OptionProvider obtiene expiraciones y cadenas de opciones de un ticker.
type OptionProvider interface {
	// FetchExpirations devuelve las expiraciones disponibles, la más cercana primero.
	FetchExpirations(ctx context.Context, ticker string) ([]time.Time, error)

	// FetchOptionChain devuelve calls y puts para la expiración dada.
	FetchOptionChain(ctx context.Context, ticker string, expiration time.Time) (domain.OptionChain, error)
}

// MarketData agrupa ambos proveedores (el adapter de Yahoo implementa los dos).
type MarketData interface {
	PriceProvider
	OptionProvider
}
