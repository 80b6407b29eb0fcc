package ports

import (
	"context"

	"github.com/alejandrodnm/optsniper/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// NotifyScan muestra el tamaño del universo, las tablas top y el plan de capital.
	NotifyScan(ctx context.Context, result domain.ScanResult) error

	// NotifyBacktest muestra el resumen del backtest o el aviso de "sin trades".
	NotifyBacktest(ctx context.Context, stats domain.BacktestStats) error
}
