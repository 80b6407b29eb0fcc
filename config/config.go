package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del sniper.
type Config struct {
	Universe   UniverseConfig   `yaml:"universe"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Allocation AllocationConfig `yaml:"allocation"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// UniverseConfig controla la construcción del universo de tickers líquidos.
type UniverseConfig struct {
	Candidates    []string `yaml:"candidates"`
	LookbackDays  int      `yaml:"lookback_days"`
	MinBars       int      `yaml:"min_bars"`
	MinAvgVolume  float64  `yaml:"min_avg_volume"`
	MinPrice      float64  `yaml:"min_price"`
	MaxPrice      float64  `yaml:"max_price"`
	MaxCandidates int      `yaml:"max_candidates"`
}

// ScannerConfig controla el scoring, el ranking y el fetch.
type ScannerConfig struct {
	Capital         float64 `yaml:"capital"`
	MinScore        int     `yaml:"min_score"` // estricto: score > min_score
	TopN            int     `yaml:"top_n"`
	MaxContractCost float64 `yaml:"max_contract_cost"`
	FetchWorkers    int     `yaml:"fetch_workers"`
	HistoryDays     int     `yaml:"history_days"`
	CacheTTLHours   int     `yaml:"cache_ttl_hours"`
}

// AllocationConfig define los tramos de capital por score.
type AllocationConfig struct {
	Tiers    []TierConfig `yaml:"tiers"` // cualquier orden; Tiers() los ordena
	Fallback float64      `yaml:"fallback_pct"`
}

// TierConfig es un tramo: score >= min_score → pct del capital actual.
type TierConfig struct {
	MinScore int     `yaml:"min_score"`
	Pct      float64 `yaml:"pct"`
}

// BacktestConfig controla el backtest rolling.
type BacktestConfig struct {
	Capital          float64  `yaml:"capital"`
	WindowDays       int      `yaml:"window_days"`
	PositionFraction float64  `yaml:"position_fraction"`
	HoldDays         int      `yaml:"hold_days"`
	MinMove          *float64 `yaml:"min_move"` // puntero: 0 es un valor válido (variante snapshot)
	LookbackSkip     int      `yaml:"lookback_skip"`
	LookaheadSkip    int      `yaml:"lookahead_skip"`
	MinBars          int      `yaml:"min_bars"`
	EveryWindow      bool     `yaml:"trade_every_window"` // cada ventana es un trade, move 0 cuenta como pérdida
	Tickers          []string `yaml:"tickers"` // vacío = universo
}

// APIConfig contiene el endpoint y los límites del proveedor de datos.
type APIConfig struct {
	YahooBase      string  `yaml:"yahoo_base"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig controla el endpoint de Prometheus. Addr vacío = deshabilitado.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// CacheTTL devuelve la antigüedad máxima del historial cacheado.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Scanner.CacheTTLHours) * time.Hour
}

// Timeout devuelve el timeout HTTP por request.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// ScanCapital devuelve el capital de la asignación como decimal exacto.
func (c *Config) ScanCapital() decimal.Decimal {
	return decimal.NewFromFloat(c.Scanner.Capital)
}

// UniverseRules construye las reglas del filtro de universo.
func (c *Config) UniverseRules() domain.UniverseRules {
	return domain.UniverseRules{
		MinBars:      c.Universe.MinBars,
		MinAvgVolume: c.Universe.MinAvgVolume,
		MinPrice:     c.Universe.MinPrice,
		MaxPrice:     c.Universe.MaxPrice,
	}
}

// Tiers construye los tramos de asignación, de mayor a menor min_score
// sin importar el orden del YAML (Pct se queda con el primero que aplica).
func (c *Config) Tiers() domain.Tiers {
	t := domain.Tiers{Fallback: c.Allocation.Fallback}
	for _, lvl := range c.Allocation.Tiers {
		t.Levels = append(t.Levels, domain.AllocationTier{MinScore: lvl.MinScore, Pct: lvl.Pct})
	}
	sort.SliceStable(t.Levels, func(i, j int) bool { return t.Levels[i].MinScore > t.Levels[j].MinScore })
	return t
}

// RollingParams construye los parámetros del backtest.
func (c *Config) RollingParams() domain.RollingParams {
	return domain.RollingParams{
		PositionFraction: c.Backtest.PositionFraction,
		HoldDays:         c.Backtest.HoldDays,
		MinMove:          *c.Backtest.MinMove,
		LookbackSkip:     c.Backtest.LookbackSkip,
		LookaheadSkip:    c.Backtest.LookaheadSkip,
		MinBars:          c.Backtest.MinBars,
		EveryWindow:      c.Backtest.EveryWindow,
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.API.YahooBase = v
	}
	if v := os.Getenv("SNIPER_CAPITAL"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config.Load: SNIPER_CAPITAL %q: %w", v, err)
		}
		cfg.Scanner.Capital = capital
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	rules := domain.DefaultUniverseRules()
	if len(cfg.Universe.Candidates) == 0 {
		cfg.Universe.Candidates = DefaultCandidates()
	}
	if cfg.Universe.LookbackDays <= 0 {
		cfg.Universe.LookbackDays = 60
	}
	if cfg.Universe.MinBars <= 0 {
		cfg.Universe.MinBars = rules.MinBars
	}
	if cfg.Universe.MinAvgVolume <= 0 {
		cfg.Universe.MinAvgVolume = rules.MinAvgVolume
	}
	if cfg.Universe.MinPrice <= 0 {
		cfg.Universe.MinPrice = rules.MinPrice
	}
	if cfg.Universe.MaxPrice <= 0 {
		cfg.Universe.MaxPrice = rules.MaxPrice
	}
	if cfg.Universe.MaxCandidates <= 0 {
		cfg.Universe.MaxCandidates = 200
	}

	if cfg.Scanner.Capital <= 0 {
		cfg.Scanner.Capital = 500
	}
	if cfg.Scanner.MinScore == 0 {
		cfg.Scanner.MinScore = 4
	}
	if cfg.Scanner.TopN <= 0 {
		cfg.Scanner.TopN = 5
	}
	if cfg.Scanner.MaxContractCost <= 0 {
		cfg.Scanner.MaxContractCost = domain.DefaultMaxContractCost
	}
	if cfg.Scanner.FetchWorkers <= 0 {
		cfg.Scanner.FetchWorkers = 4
	}
	if cfg.Scanner.HistoryDays <= 0 {
		cfg.Scanner.HistoryDays = 60
	}
	if cfg.Scanner.CacheTTLHours <= 0 {
		cfg.Scanner.CacheTTLHours = 12
	}

	if len(cfg.Allocation.Tiers) == 0 {
		for _, lvl := range domain.DefaultTiers().Levels {
			cfg.Allocation.Tiers = append(cfg.Allocation.Tiers, TierConfig{MinScore: lvl.MinScore, Pct: lvl.Pct})
		}
	}
	if cfg.Allocation.Fallback <= 0 {
		cfg.Allocation.Fallback = domain.DefaultTiers().Fallback
	}

	params := domain.DefaultRollingParams()
	if cfg.Backtest.Capital <= 0 {
		cfg.Backtest.Capital = 500
	}
	if cfg.Backtest.WindowDays <= 0 {
		cfg.Backtest.WindowDays = 120
	}
	if cfg.Backtest.PositionFraction <= 0 {
		cfg.Backtest.PositionFraction = params.PositionFraction
	}
	if cfg.Backtest.HoldDays <= 0 {
		cfg.Backtest.HoldDays = params.HoldDays
	}
	if cfg.Backtest.MinMove == nil {
		v := params.MinMove
		cfg.Backtest.MinMove = &v
	}
	if cfg.Backtest.LookbackSkip <= 0 {
		cfg.Backtest.LookbackSkip = params.LookbackSkip
	}
	if cfg.Backtest.LookaheadSkip <= 0 {
		cfg.Backtest.LookaheadSkip = params.LookaheadSkip
	}
	if cfg.Backtest.MinBars <= 0 {
		cfg.Backtest.MinBars = params.MinBars
	}

	if cfg.API.YahooBase == "" {
		cfg.API.YahooBase = "https://query1.finance.yahoo.com"
	}
	if cfg.API.RatePerSec <= 0 {
		cfg.API.RatePerSec = 5
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "optsniper.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// DefaultCandidates devuelve la lista base de ETFs y large caps más la extendida.
// Contiene duplicados; el builder deduplica conservando el orden.
func DefaultCandidates() []string {
	base := []string{
		"SPY", "QQQ", "IWM", "DIA", "XLF", "XLY", "XLC", "XLK", "XLV", "XLI", "XLE", "XLB", "XLU",
		"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "AMD", "INTC", "CSCO", "ADBE", "CRM",
		"PYPL", "ORCL", "NFLX", "V", "MA", "JPM", "BAC", "C", "WFC", "GS", "BRK-B", "UNH", "LLY", "PFE",
		"MRK", "ABBV", "TMO", "DHR", "LMT", "BA", "RTX", "DIS", "TMUS", "VZ", "CMCSA", "KO", "PEP", "MCD",
		"SBUX", "XOM", "CVX", "COP", "SLB",
	}
	extra := []string{
		"BMY", "AMAT", "ASML", "QCOM", "TXN", "IBM", "HON", "MMM", "CAT", "DE", "GS", "MS",
		"SPGI", "ICE", "ADP", "NOW", "SNOW", "TEAM", "ZM", "UBER", "LYFT", "SHOP", "SQ", "ROKU",
		"DOCU", "PLTR", "PINS", "TWTR", "SNAP", "DDOG", "CRWD", "NET", "OKTA", "FISV", "PAYC",
		"DXCM", "MRNA", "REGN", "BIIB", "VRTX", "ALGN", "ISRG", "EW", "MNST", "PEP", "KO", "MO",
		"PM", "NKE", "LULU", "TJX", "ROST", "HD", "LOW", "COST", "WMT", "TGT", "DG", "DLTR",
		"RCL", "CCL", "NCLH", "MGM", "WYNN", "MAR", "HLT", "HST", "SPG", "VTR", "EQR", "AVB",
		"DLR", "PLD", "EXR", "O", "EQIX", "COST", "WMT", "HD", "LOW", "KMB", "CL", "PG", "EL",
		"KO", "PEP", "MO", "PM", "BF-B", "ADM", "GIS", "CPB", "K", "HSY", "MDLZ", "MNST", "HOOD",
	}
	return append(base, extra...)
}
