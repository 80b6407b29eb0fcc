package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
)

// UniverseStore persiste la lista de tickers cualificados entre ejecuciones.
type UniverseStore interface {
	// LoadUniverse devuelve el universo guardado; ok=false si nunca se construyó.
	LoadUniverse(ctx context.Context) (tickers []string, ok bool, err error)

	// SaveUniverse reemplaza el universo guardado.
	SaveUniverse(ctx context.Context, tickers []string) error
}

// HistoryCache guarda el historial de precios por ticker para evitar refetch.
type HistoryCache interface {
	// LoadHistory devuelve el historial si existe y no es más viejo que maxAge.
	LoadHistory(ctx context.Context, ticker string, maxAge time.Duration) (domain.PriceHistory, bool, error)

	// SaveHistory reemplaza el historial cacheado del ticker.
	SaveHistory(ctx context.Context, ticker string, history domain.PriceHistory) error
}

// ScanStore persiste el resultado de cada escaneo y cada backtest.
type ScanStore interface {
	// SaveScan persiste las tablas top y el plan de asignación de una pasada.
	SaveScan(ctx context.Context, result domain.ScanResult) error

	// SaveBacktest persiste el resumen de un backtest.
	SaveBacktest(ctx context.Context, stats domain.BacktestStats) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
