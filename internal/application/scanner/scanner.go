package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/optsniper/internal/application/allocation"
	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/alejandrodnm/optsniper/internal/metrics"
	"github.com/alejandrodnm/optsniper/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config contiene la configuración del scanner.
type Config struct {
	FetchWorkers    int           // goroutines para fetch por ticker (0 = 4)
	HistoryDays     int           // días de historial para el contexto de breakout
	CacheTTL        time.Duration // antigüedad máxima del historial cacheado
	MinScore        int           // umbral estricto: score > MinScore
	TopN            int           // contratos por tipo en las tablas top
	MaxContractCost float64
	Tiers           domain.Tiers
}

// DefaultConfig devuelve la configuración por defecto del sniper.
func DefaultConfig() Config {
	return Config{
		FetchWorkers:    defaultFetchWorkers,
		HistoryDays:     60,
		CacheTTL:        12 * time.Hour,
		MinScore:        4,
		TopN:            5,
		MaxContractCost: domain.DefaultMaxContractCost,
		Tiers:           domain.DefaultTiers(),
	}
}

// Scanner orquesta una pasada: fetch → score → rank → allocate.
// cache, store y notifier son opcionales (nil = deshabilitado).
type Scanner struct {
	cfg      Config
	data     ports.MarketData
	cache    ports.HistoryCache
	store    ports.ScanStore
	notifier ports.Notifier
	metrics  *metrics.Registry
	scorer   domain.Scorer
	now      func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(
	cfg Config,
	data ports.MarketData,
	cache ports.HistoryCache,
	store ports.ScanStore,
	notifier ports.Notifier,
	m *metrics.Registry,
) *Scanner {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 60
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if len(cfg.Tiers.Levels) == 0 && cfg.Tiers.Fallback == 0 {
		cfg.Tiers = domain.DefaultTiers()
	}
	return &Scanner{
		cfg:      cfg,
		data:     data,
		cache:    cache,
		store:    store,
		notifier: notifier,
		metrics:  m,
		scorer:   domain.NewScorer(cfg.MaxContractCost),
		now:      time.Now,
	}
}

// tickerResult es lo que aporta un ticker a la pasada.
type tickerResult struct {
	outcome domain.TickerOutcome
	scored  []domain.ScoredOption
	skipped map[domain.SkipReason]int
}

// Run ejecuta una pasada y notifica/persiste el resultado.
// Los errores del notifier y del storage se loguean, no abortan.
func (s *Scanner) Run(ctx context.Context, tickers []string, capital decimal.Decimal) (domain.ScanResult, error) {
	start := time.Now()

	result, err := s.RunOnce(ctx, tickers, capital)
	if err != nil {
		return domain.ScanResult{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyScan(ctx, result); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	if s.store != nil {
		if err := s.store.SaveScan(ctx, result); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("scan complete",
		"run_id", result.RunID,
		"universe", result.UniverseSize,
		"tickers_skipped", result.TickersSkipped(),
		"contracts_scored", result.ContractsScored,
		"calls", len(result.Selection.Calls),
		"puts", len(result.Selection.Puts),
		"allocations", len(result.Plan.Entries),
		"remaining", result.Plan.RemainingCapital.StringFixed(2),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// RunOnce ejecuta exactamente una pasada sobre los tickers y devuelve el resultado.
// Los fallos por ticker se reportan en Outcomes; solo la cancelación devuelve error.
func (s *Scanner) RunOnce(ctx context.Context, tickers []string, capital decimal.Decimal) (domain.ScanResult, error) {
	start := time.Now()

	results := scanTickersConcurrent(ctx, tickers, s.cfg.FetchWorkers, s.scanTicker)
	if err := ctx.Err(); err != nil {
		return domain.ScanResult{}, fmt.Errorf("scanner.RunOnce: %w", err)
	}

	result := domain.ScanResult{
		RunID:            uuid.NewString(),
		ScannedAt:        s.now().UTC(),
		UniverseSize:     len(tickers),
		Outcomes:         make([]domain.TickerOutcome, 0, len(results)),
		ContractsSkipped: make(map[domain.SkipReason]int),
	}

	var scored []domain.ScoredOption
	for _, r := range results {
		result.Outcomes = append(result.Outcomes, r.outcome)
		scored = append(scored, r.scored...)
		for reason, n := range r.skipped {
			result.ContractsSkipped[reason] += n
		}
	}
	result.ContractsScored = len(scored)

	result.Selection = SelectTop(scored, s.cfg.MinScore, s.cfg.TopN)
	result.Plan = allocation.Allocate(allocation.Candidates(result.Selection), capital, s.cfg.Tiers)

	s.metrics.RecordTickers(result.Outcomes)
	s.metrics.RecordPlan(result.Plan)
	s.metrics.ObserveScan(time.Since(start))

	return result, nil
}

// scanTicker hace fetch de expiraciones, cadena e historial de un ticker y puntúa
// sus contratos. Nunca devuelve error: el motivo queda en el outcome.
func (s *Scanner) scanTicker(ctx context.Context, ticker string) tickerResult {
	res := tickerResult{outcome: domain.TickerOutcome{Ticker: ticker}}
	skip := func(reason domain.SkipReason, err error) tickerResult {
		res.outcome.Reason = reason
		res.outcome.Err = err
		slog.Debug("ticker skipped", "ticker", ticker, "reason", reason, "err", err)
		return res
	}

	expirations, err := s.data.FetchExpirations(ctx, ticker)
	if err != nil {
		return skip(domain.SkipDataUnavailable, err)
	}
	if len(expirations) == 0 {
		return skip(domain.SkipNoExpirations, nil)
	}
	expiration := expirations[0]

	chain, err := s.data.FetchOptionChain(ctx, ticker, expiration)
	if err != nil {
		return skip(domain.SkipDataUnavailable, err)
	}

	history, err := s.history(ctx, ticker)
	if err != nil {
		return skip(domain.SkipDataUnavailable, err)
	}
	pc, err := domain.NewPriceContext(history, domain.BreakoutWindow)
	if err != nil {
		return skip(domain.SkipDataUnavailable, err)
	}

	res.skipped = make(map[domain.SkipReason]int)
	s.scoreContracts(&res, ticker, expiration, domain.Call, chain.Calls, pc)
	s.scoreContracts(&res, ticker, expiration, domain.Put, chain.Puts, pc)
	return res
}

func (s *Scanner) scoreContracts(
	res *tickerResult,
	ticker string,
	expiration time.Time,
	typ domain.OptionType,
	contracts []domain.OptionContractRaw,
	pc domain.PriceContext,
) {
	for _, c := range contracts {
		opt, reason, err := s.scorer.Score(ticker, expiration, typ, c, pc)
		s.metrics.RecordContract(reason)
		if reason != domain.SkipNone {
			if err != nil {
				slog.Debug("contract skipped", "ticker", ticker, "symbol", c.Symbol, "err", err)
			}
			res.skipped[reason]++
			continue
		}
		res.scored = append(res.scored, opt)
	}
}

// history devuelve el historial reciente, del cache si está fresco.
func (s *Scanner) history(ctx context.Context, ticker string) (domain.PriceHistory, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.LoadHistory(ctx, ticker, s.cfg.CacheTTL)
		if err != nil {
			slog.Debug("history cache read failed", "ticker", ticker, "err", err)
		}
		s.metrics.RecordCacheLookup(ok && len(cached) > 0)
		if ok && len(cached) > 0 {
			return cached, nil
		}
	}

	to := s.now()
	from := to.AddDate(0, 0, -s.cfg.HistoryDays)
	history, err := s.data.FetchPriceHistory(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("scanner.history %s: %w: empty history", ticker, domain.ErrDataUnavailable)
	}

	if s.cache != nil {
		if err := s.cache.SaveHistory(ctx, ticker, history); err != nil {
			slog.Warn("history cache write failed", "ticker", ticker, "err", err)
		}
	}
	return history, nil
}

// InspectTicker arma el informe manual de un ticker: precio, tendencia y los
// primeros contratos de la expiración más cercana.
// Sin historial devuelve error; sin opciones devuelve el informe con HasOptions=false.
func (s *Scanner) InspectTicker(ctx context.Context, ticker string) (domain.TickerReport, error) {
	to := s.now()
	history, err := s.data.FetchPriceHistory(ctx, ticker, to.AddDate(0, -6, 0), to)
	if err != nil {
		return domain.TickerReport{}, fmt.Errorf("scanner.InspectTicker %s: %w", ticker, err)
	}
	if len(history) == 0 {
		return domain.TickerReport{}, fmt.Errorf("scanner.InspectTicker %s: %w: no price data", ticker, domain.ErrDataUnavailable)
	}

	report := domain.TickerReport{
		Ticker: ticker,
		Price:  domain.Round2(history.LastClose()),
	}
	report.TrendScore, _ = domain.TrendScore(history)

	expirations, err := s.data.FetchExpirations(ctx, ticker)
	if err != nil || len(expirations) == 0 {
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("no options data", "ticker", ticker, "err", err)
		}
		return report, ctx.Err()
	}

	chain, err := s.data.FetchOptionChain(ctx, ticker, expirations[0])
	if err != nil {
		slog.Warn("option chain unavailable", "ticker", ticker, "err", err)
		return report, ctx.Err()
	}

	report.HasOptions = true
	report.Expiration = expirations[0]
	report.TopCalls = firstN(chain.Calls, s.cfg.TopN)
	report.TopPuts = firstN(chain.Puts, s.cfg.TopN)
	return report, nil
}

func firstN(cs []domain.OptionContractRaw, n int) []domain.OptionContractRaw {
	if len(cs) > n {
		return cs[:n]
	}
	return cs
}
