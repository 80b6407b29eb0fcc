package universe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/alejandrodnm/optsniper/internal/ports"
)

// Config contiene la configuración del builder del universo.
type Config struct {
	LookbackDays  int // días de historial para evaluar liquidez y precio
	MaxCandidates int // tope de candidatos evaluados
	Rules         domain.UniverseRules
}

// DefaultConfig devuelve 60 días de lookback, 200 candidatos y las reglas por defecto.
func DefaultConfig() Config {
	return Config{
		LookbackDays:  60,
		MaxCandidates: 200,
		Rules:         domain.DefaultUniverseRules(),
	}
}

// Result es el universo cualificado más el outcome de cada candidato evaluado.
type Result struct {
	Tickers  []string
	Outcomes []domain.TickerOutcome
}

// Builder construye y cachea el universo de tickers líquidos.
// store es opcional (nil = sin cache).
type Builder struct {
	cfg    Config
	prices ports.PriceProvider
	store  ports.UniverseStore
	now    func() time.Time
}

// NewBuilder crea un Builder con las dependencias inyectadas.
func NewBuilder(cfg Config, prices ports.PriceProvider, store ports.UniverseStore) *Builder {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 60
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 200
	}
	return &Builder{cfg: cfg, prices: prices, store: store, now: time.Now}
}

// Load devuelve el universo cacheado si existe y refresh es false;
// si no, lo construye de cero.
func (b *Builder) Load(ctx context.Context, candidates []string, refresh bool) ([]string, error) {
	if !refresh && b.store != nil {
		tickers, ok, err := b.store.LoadUniverse(ctx)
		if err != nil {
			slog.Warn("universe cache read failed, rebuilding", "err", err)
		} else if ok {
			slog.Info("universe loaded from cache", "tickers", len(tickers))
			return tickers, nil
		}
	}

	res, err := b.Build(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return res.Tickers, nil
}

// Build evalúa cada candidato contra las reglas y persiste los que cualifican.
// Un candidato que falla nunca aborta el batch; solo la cancelación devuelve error.
func (b *Builder) Build(ctx context.Context, candidates []string) (Result, error) {
	list := dedupe(candidates, b.cfg.MaxCandidates)
	to := b.now()
	from := to.AddDate(0, 0, -b.cfg.LookbackDays)

	res := Result{
		Tickers:  make([]string, 0, len(list)),
		Outcomes: make([]domain.TickerOutcome, 0, len(list)),
	}

	for _, ticker := range list {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("universe.Build: %w", err)
		}

		outcome := b.evaluate(ctx, ticker, from, to)
		res.Outcomes = append(res.Outcomes, outcome)
		if !outcome.Skipped() {
			res.Tickers = append(res.Tickers, ticker)
		}
	}

	if b.store != nil {
		if err := b.store.SaveUniverse(ctx, res.Tickers); err != nil {
			slog.Warn("universe cache write failed", "err", err)
		}
	}

	skips := domain.CountSkips(res.Outcomes)
	slog.Info("universe built",
		"candidates", len(list),
		"qualified", len(res.Tickers),
		"data_unavailable", skips[domain.SkipDataUnavailable],
		"too_short", skips[domain.SkipTooShort],
		"not_qualified", skips[domain.SkipNotQualified],
	)
	return res, nil
}

func (b *Builder) evaluate(ctx context.Context, ticker string, from, to time.Time) domain.TickerOutcome {
	out := domain.TickerOutcome{Ticker: ticker}

	history, err := b.prices.FetchPriceHistory(ctx, ticker, from, to)
	switch {
	case err != nil:
		out.Reason, out.Err = domain.SkipDataUnavailable, err
	case len(history) == 0:
		out.Reason = domain.SkipDataUnavailable
		out.Err = fmt.Errorf("universe: %s: %w: empty history", ticker, domain.ErrDataUnavailable)
	case len(history) < b.cfg.Rules.MinBars:
		out.Reason = domain.SkipTooShort
	case !b.cfg.Rules.Qualifies(history):
		out.Reason = domain.SkipNotQualified
	}

	if out.Skipped() {
		slog.Debug("candidate rejected", "ticker", ticker, "reason", out.Reason, "bars", len(history), "err", out.Err)
	}
	return out
}

// dedupe quita duplicados conservando el primer orden de aparición y corta en max.
func dedupe(candidates []string, max int) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == max {
			break
		}
	}
	return out
}
