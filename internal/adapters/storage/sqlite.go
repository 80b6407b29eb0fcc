package storage

// sqlite.go: universo, cache de historial y log de corridas en un solo archivo.
//
// Tablas:
//   - `universe` + `universe_builds`: último universo cualificado, en orden.
//     Sin fila en universe_builds el universo nunca se construyó (≠ universo vacío).
//   - `price_history` + `history_meta`: barras diarias por ticker y cuándo se bajaron.
//   - `scan_runs`, `scan_options`, `allocations`: una fila por pasada, sus tablas top
//     y su plan de capital.
//   - `backtest_runs`: resumen de cada backtest.
//
// Las fechas se guardan como unix seconds; el dinero del allocator como TEXT decimal.
// Prune automático al arrancar: corridas > 90d, historiales no refrescados en 30d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS universe_builds (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    built_at INTEGER NOT NULL,
    size     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS universe (
    position INTEGER PRIMARY KEY,
    ticker   TEXT    NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS price_history (
    ticker TEXT    NOT NULL,
    date   INTEGER NOT NULL,
    open   REAL    NOT NULL DEFAULT 0,
    high   REAL    NOT NULL DEFAULT 0,
    low    REAL    NOT NULL DEFAULT 0,
    close  REAL    NOT NULL,
    volume INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (ticker, date)
);

CREATE TABLE IF NOT EXISTS history_meta (
    ticker     TEXT PRIMARY KEY,
    fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_runs (
    run_id            TEXT PRIMARY KEY,
    scanned_at        INTEGER NOT NULL,
    universe_size     INTEGER NOT NULL DEFAULT 0,
    tickers_skipped   INTEGER NOT NULL DEFAULT 0,
    contracts_scored  INTEGER NOT NULL DEFAULT 0,
    starting_capital  TEXT    NOT NULL,
    remaining_capital TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_options (
    run_id        TEXT    NOT NULL REFERENCES scan_runs(run_id) ON DELETE CASCADE,
    type          TEXT    NOT NULL,
    rank          INTEGER NOT NULL,
    ticker        TEXT    NOT NULL,
    strike        REAL    NOT NULL,
    expiration    INTEGER NOT NULL,
    stock_price   REAL    NOT NULL DEFAULT 0,
    bid           REAL    NOT NULL DEFAULT 0,
    ask           REAL    NOT NULL DEFAULT 0,
    last_price    REAL    NOT NULL DEFAULT 0,
    volume        INTEGER NOT NULL DEFAULT 0,
    open_interest INTEGER NOT NULL DEFAULT 0,
    score         INTEGER NOT NULL,
    PRIMARY KEY (run_id, type, rank)
);

CREATE TABLE IF NOT EXISTS allocations (
    run_id     TEXT    NOT NULL REFERENCES scan_runs(run_id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    ticker     TEXT    NOT NULL,
    type       TEXT    NOT NULL,
    strike     REAL    NOT NULL,
    expiration INTEGER NOT NULL,
    score      INTEGER NOT NULL,
    contracts  INTEGER NOT NULL,
    total_cost TEXT    NOT NULL,
    PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id           TEXT PRIMARY KEY,
    ran_at           INTEGER NOT NULL,
    trades           INTEGER NOT NULL DEFAULT 0,
    wins             INTEGER NOT NULL DEFAULT 0,
    losses           INTEGER NOT NULL DEFAULT 0,
    win_rate_pct     REAL    NOT NULL DEFAULT 0,
    total_return_pct REAL    NOT NULL DEFAULT 0,
    starting_capital REAL    NOT NULL,
    final_capital    REAL    NOT NULL,
    tickers_tested   INTEGER NOT NULL DEFAULT 0,
    tickers_skipped  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_at ON scan_runs(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_backtest_at  ON backtest_runs(ran_at DESC);
`

const (
	retentionRuns    = 90 * 24 * time.Hour
	retentionHistory = 30 * 24 * time.Hour
)

// SQLiteStorage implementa ports.UniverseStore, ports.HistoryCache y ports.ScanStore
// usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db, now: time.Now}
	s.pruneOld(context.Background())
	return s, nil
}

// --- universo ---

// LoadUniverse devuelve el último universo guardado, en orden.
func (s *SQLiteStorage) LoadUniverse(ctx context.Context) ([]string, bool, error) {
	var builds int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM universe_builds`).Scan(&builds); err != nil {
		return nil, false, fmt.Errorf("storage.LoadUniverse: count builds: %w", err)
	}
	if builds == 0 {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM universe ORDER BY position`)
	if err != nil {
		return nil, false, fmt.Errorf("storage.LoadUniverse: query: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, false, fmt.Errorf("storage.LoadUniverse: scan row: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, true, rows.Err()
}

// SaveUniverse reemplaza el universo guardado.
func (s *SQLiteStorage) SaveUniverse(ctx context.Context, tickers []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveUniverse: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM universe`); err != nil {
		return fmt.Errorf("storage.SaveUniverse: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO universe (position, ticker) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveUniverse: prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range tickers {
		if _, err := stmt.ExecContext(ctx, i, t); err != nil {
			return fmt.Errorf("storage.SaveUniverse: insert %s: %w", t, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO universe_builds (built_at, size) VALUES (?, ?)`,
		s.now().Unix(), len(tickers),
	); err != nil {
		return fmt.Errorf("storage.SaveUniverse: insert build: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveUniverse: commit: %w", err)
	}
	return nil
}

// --- cache de historial ---

// LoadHistory devuelve el historial cacheado si se bajó hace menos de maxAge.
// maxAge <= 0 acepta cualquier antigüedad.
func (s *SQLiteStorage) LoadHistory(ctx context.Context, ticker string, maxAge time.Duration) (domain.PriceHistory, bool, error) {
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM history_meta WHERE ticker = ?`, ticker,
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage.LoadHistory: meta %s: %w", ticker, err)
	}
	if maxAge > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM price_history
		WHERE ticker = ?
		ORDER BY date
	`, ticker)
	if err != nil {
		return nil, false, fmt.Errorf("storage.LoadHistory: query %s: %w", ticker, err)
	}
	defer rows.Close()

	var history domain.PriceHistory
	for rows.Next() {
		var bar domain.PriceBar
		var date int64
		if err := rows.Scan(&date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, false, fmt.Errorf("storage.LoadHistory: scan row: %w", err)
		}
		bar.Date = time.Unix(date, 0).UTC()
		history = append(history, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("storage.LoadHistory: rows: %w", err)
	}
	return history, true, nil
}

// SaveHistory reemplaza el historial cacheado del ticker.
func (s *SQLiteStorage) SaveHistory(ctx context.Context, ticker string, history domain.PriceHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveHistory: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_history WHERE ticker = ?`, ticker); err != nil {
		return fmt.Errorf("storage.SaveHistory: clear %s: %w", ticker, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (ticker, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			open   = excluded.open,
			high   = excluded.high,
			low    = excluded.low,
			close  = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveHistory: prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range history {
		if _, err := stmt.ExecContext(ctx, ticker, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("storage.SaveHistory: insert %s: %w", ticker, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history_meta (ticker, fetched_at) VALUES (?, ?)
		ON CONFLICT(ticker) DO UPDATE SET fetched_at = excluded.fetched_at
	`, ticker, s.now().Unix()); err != nil {
		return fmt.Errorf("storage.SaveHistory: meta %s: %w", ticker, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveHistory: commit: %w", err)
	}
	return nil
}

// --- log de corridas ---

// SaveScan persiste el resumen de la pasada, sus tablas top y su plan de capital.
func (s *SQLiteStorage) SaveScan(ctx context.Context, result domain.ScanResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: begin tx: %w", err)
	}
	defer tx.Rollback()

	scannedAt := result.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = s.now()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scan_runs
			(run_id, scanned_at, universe_size, tickers_skipped, contracts_scored,
			 starting_capital, remaining_capital)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID,
		scannedAt.Unix(),
		result.UniverseSize,
		result.TickersSkipped(),
		result.ContractsScored,
		result.Plan.StartingCapital.String(),
		result.Plan.RemainingCapital.String(),
	); err != nil {
		return fmt.Errorf("storage.SaveScan: insert run: %w", err)
	}

	optStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scan_options
			(run_id, type, rank, ticker, strike, expiration, stock_price,
			 bid, ask, last_price, volume, open_interest, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: prepare options: %w", err)
	}
	defer optStmt.Close()

	for _, table := range [][]domain.ScoredOption{result.Selection.Calls, result.Selection.Puts} {
		for rank, o := range table {
			if _, err := optStmt.ExecContext(ctx,
				result.RunID, string(o.Type), rank, o.Ticker, o.Strike, o.Expiration.Unix(),
				o.StockPrice, o.Bid, o.Ask, o.LastPrice, o.Volume, o.OpenInterest, o.Score,
			); err != nil {
				return fmt.Errorf("storage.SaveScan: insert option %s: %w", o.Ticker, err)
			}
		}
	}

	allocStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO allocations
			(run_id, position, ticker, type, strike, expiration, score, contracts, total_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: prepare allocations: %w", err)
	}
	defer allocStmt.Close()

	for i, e := range result.Plan.Entries {
		if _, err := allocStmt.ExecContext(ctx,
			result.RunID, i, e.Ticker, string(e.Type), e.Strike, e.Expiration.Unix(),
			e.Score, e.Contracts, e.TotalCost.String(),
		); err != nil {
			return fmt.Errorf("storage.SaveScan: insert allocation %s: %w", e.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveScan: commit: %w", err)
	}
	return nil
}

// SaveBacktest persiste el resumen de un backtest.
func (s *SQLiteStorage) SaveBacktest(ctx context.Context, stats domain.BacktestStats) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
			(run_id, ran_at, trades, wins, losses, win_rate_pct, total_return_pct,
			 starting_capital, final_capital, tickers_tested, tickers_skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stats.RunID, s.now().Unix(), stats.Trades, stats.Wins, stats.Losses,
		stats.WinRatePct, stats.TotalReturnPct, stats.StartingCapital, stats.FinalCapital,
		stats.TickersTested, stats.TickersSkipped,
	); err != nil {
		return fmt.Errorf("storage.SaveBacktest: insert: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoffRuns := s.now().Add(-retentionRuns).Unix()
	cutoffHistory := s.now().Add(-retentionHistory).Unix()
	s.db.ExecContext(ctx, `DELETE FROM scan_runs WHERE scanned_at < ?`, cutoffRuns)
	s.db.ExecContext(ctx, `DELETE FROM backtest_runs WHERE ran_at < ?`, cutoffRuns)
	s.db.ExecContext(ctx, `DELETE FROM universe_builds WHERE id NOT IN (SELECT MAX(id) FROM universe_builds)`)
	s.db.ExecContext(ctx, `
		DELETE FROM price_history WHERE ticker IN (
			SELECT ticker FROM history_meta WHERE fetched_at < ?
		)`, cutoffHistory)
	s.db.ExecContext(ctx, `DELETE FROM history_meta WHERE fetched_at < ?`, cutoffHistory)
}
