package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/alejandrodnm/optsniper/internal/ports"
	"github.com/google/uuid"
)

// Config contiene la configuración del backtest.
type Config struct {
	WindowDays int // días de historial por ticker
	Params     domain.RollingParams
}

// DefaultConfig devuelve una ventana de 120 días y los parámetros por defecto.
func DefaultConfig() Config {
	return Config{WindowDays: 120, Params: domain.DefaultRollingParams()}
}

// Runner corre la simulación rolling sobre una lista de tickers con capital compartido.
// store y notifier son opcionales.
type Runner struct {
	cfg      Config
	prices   ports.PriceProvider
	store    ports.ScanStore
	notifier ports.Notifier
	now      func() time.Time
}

// NewRunner crea un Runner con las dependencias inyectadas.
func NewRunner(cfg Config, prices ports.PriceProvider, store ports.ScanStore, notifier ports.Notifier) *Runner {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 120
	}
	return &Runner{cfg: cfg, prices: prices, store: store, notifier: notifier, now: time.Now}
}

// Run simula cada ticker en orden encadenando el capital: el capital final de uno
// es el inicial del siguiente. Filas sin datos o cortas se saltan; solo la
// cancelación devuelve error.
func (r *Runner) Run(ctx context.Context, tickers []string, startingCapital float64) (domain.BacktestStats, []domain.TickerOutcome, error) {
	to := r.now()
	from := to.AddDate(0, 0, -r.cfg.WindowDays)

	state := domain.BacktestState{Capital: startingCapital}
	outcomes := make([]domain.TickerOutcome, 0, len(tickers))
	tested := 0

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return domain.BacktestStats{}, nil, fmt.Errorf("backtest.Run: %w", err)
		}

		out := domain.TickerOutcome{Ticker: ticker}
		history, err := r.prices.FetchPriceHistory(ctx, ticker, from, to)
		switch {
		case err != nil:
			out.Reason, out.Err = domain.SkipDataUnavailable, err
		case len(history) < r.cfg.Params.MinBars:
			out.Reason = domain.SkipTooShort
		default:
			before := state.Trades
			state = domain.SimulateRolling(history, state, r.cfg.Params)
			tested++
			slog.Debug("ticker simulated", "ticker", ticker, "trades", state.Trades-before, "capital", domain.Round2(state.Capital))
		}
		if out.Skipped() {
			slog.Debug("ticker skipped", "ticker", ticker, "reason", out.Reason, "err", out.Err)
		}
		outcomes = append(outcomes, out)
	}

	stats := domain.NewBacktestStats(startingCapital, state, tested, len(outcomes)-tested)
	stats.RunID = uuid.NewString()

	slog.Info("backtest complete",
		"run_id", stats.RunID,
		"tickers_tested", stats.TickersTested,
		"tickers_skipped", stats.TickersSkipped,
		"trades", stats.Trades,
		"win_rate_pct", stats.WinRatePct,
		"total_return_pct", stats.TotalReturnPct,
	)
	return stats, outcomes, nil
}

// RunAndReport corre el backtest y lo notifica/persiste.
// Los errores del notifier y del storage se loguean, no abortan.
func (r *Runner) RunAndReport(ctx context.Context, tickers []string, startingCapital float64) (domain.BacktestStats, error) {
	stats, _, err := r.Run(ctx, tickers, startingCapital)
	if err != nil {
		return domain.BacktestStats{}, err
	}

	if r.notifier != nil {
		if err := r.notifier.NotifyBacktest(ctx, stats); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	if r.store != nil {
		if err := r.store.SaveBacktest(ctx, stats); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}
	return stats, nil
}
