package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/optsniper/config"
	"github.com/alejandrodnm/optsniper/internal/adapters/notify"
	"github.com/alejandrodnm/optsniper/internal/adapters/storage"
	"github.com/alejandrodnm/optsniper/internal/adapters/yahoo"
	"github.com/alejandrodnm/optsniper/internal/application/backtest"
	"github.com/alejandrodnm/optsniper/internal/application/scanner"
	"github.com/alejandrodnm/optsniper/internal/application/universe"
	"github.com/alejandrodnm/optsniper/internal/metrics"
	"github.com/alejandrodnm/optsniper/internal/ports"
)

// options son los flags de la línea de comandos.
type options struct {
	configPath  string
	verbose     bool
	logFormat   string
	refresh     bool
	backtest    bool
	ticker      string
	capital     float64
	noStore     bool
	metricsAddr string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config/config.yaml", "path to config file")
	flag.BoolVar(&opts.verbose, "verbose", false, "set log level to debug")
	flag.StringVar(&opts.logFormat, "format", "", "log format: text|json (overrides config)")
	flag.BoolVar(&opts.refresh, "refresh-universe", false, "rebuild the ticker universe instead of using the cached one")
	flag.BoolVar(&opts.backtest, "backtest", false, "run the rolling backtest over the universe and exit")
	flag.StringVar(&opts.ticker, "ticker", "", "print the manual report for a single ticker and exit")
	flag.Float64Var(&opts.capital, "capital", 0, "starting capital for the allocation (overrides config)")
	flag.BoolVar(&opts.noStore, "no-store", false, "do not open the SQLite database (no cache, no run log)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "expose Prometheus /metrics on this address (overrides config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, opts)
	cancel()
	os.Exit(code)
}

// run ejecuta el modo pedido y devuelve el exit code. Los defers (storage,
// metrics) corren siempre antes de salir.
func run(ctx context.Context, opts options) int {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", opts.configPath)
		return 1
	}

	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.capital > 0 {
		cfg.Scanner.Capital = opts.capital
		cfg.Backtest.Capital = opts.capital
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	setupLogger(cfg.Log)

	slog.Info("optsniper starting",
		"config", opts.configPath,
		"capital", cfg.Scanner.Capital,
		"backtest", opts.backtest,
		"ticker", opts.ticker,
		"refresh_universe", opts.refresh,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := yahoo.NewClient(yahoo.ClientConfig{
		BaseURL:    cfg.API.YahooBase,
		RatePerSec: cfg.API.RatePerSec,
		Timeout:    cfg.Timeout(),
	})
	console := notify.NewConsole()

	reg := metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := reg.Serve(ctx, cfg.Metrics.Addr); err != nil {
				slog.Error("metrics endpoint failed", "err", err)
			}
		}()
	}

	// Los puertos quedan nil con -no-store: los servicios los tratan como deshabilitados.
	var (
		universeStore ports.UniverseStore
		historyCache  ports.HistoryCache
		scanStore     ports.ScanStore
	)
	if !opts.noStore {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			return 1
		}
		defer store.Close()
		universeStore, historyCache, scanStore = store, store, store
	}

	scanCfg := scanner.Config{
		FetchWorkers:    cfg.Scanner.FetchWorkers,
		HistoryDays:     cfg.Scanner.HistoryDays,
		CacheTTL:        cfg.CacheTTL(),
		MinScore:        cfg.Scanner.MinScore,
		TopN:            cfg.Scanner.TopN,
		MaxContractCost: cfg.Scanner.MaxContractCost,
		Tiers:           cfg.Tiers(),
	}
	s := scanner.New(scanCfg, client, historyCache, scanStore, console, reg)

	if opts.ticker != "" {
		return inspectTicker(ctx, s, console, strings.ToUpper(strings.TrimSpace(opts.ticker)))
	}

	builder := universe.NewBuilder(universe.Config{
		LookbackDays:  cfg.Universe.LookbackDays,
		MaxCandidates: cfg.Universe.MaxCandidates,
		Rules:         cfg.UniverseRules(),
	}, client, universeStore)

	tickers, err := builder.Load(ctx, cfg.Universe.Candidates, opts.refresh)
	if err != nil {
		slog.Error("failed to load universe", "err", err)
		return 1
	}

	if opts.backtest {
		btTickers := tickers
		if len(cfg.Backtest.Tickers) > 0 {
			btTickers = cfg.Backtest.Tickers
		}
		runner := backtest.NewRunner(backtest.Config{
			WindowDays: cfg.Backtest.WindowDays,
			Params:     cfg.RollingParams(),
		}, client, scanStore, console)

		stats, err := runner.RunAndReport(ctx, btTickers, cfg.Backtest.Capital)
		if err != nil {
			slog.Error("backtest failed", "err", err)
			return 1
		}
		reg.RecordBacktest(stats)
		return 0
	}

	if _, err := s.Run(ctx, tickers, cfg.ScanCapital()); err != nil {
		slog.Error("scan failed", "err", err)
		return 1
	}

	slog.Info("optsniper stopped cleanly")
	return 0
}

func inspectTicker(ctx context.Context, s *scanner.Scanner, console *notify.Console, ticker string) int {
	report, err := s.InspectTicker(ctx, ticker)
	if err != nil {
		slog.Error("Ticker not valid or no data available.", "ticker", ticker, "err", err)
		return 1
	}
	if err := console.NotifyTicker(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return 0
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stderr: stdout queda para las tablas
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
