package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/optsniper/config"
	"github.com/alejandrodnm/optsniper/internal/adapters/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Levels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cases := []struct {
		level   string
		enabled slog.Level
		dropped slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"bogus", slog.LevelInfo, slog.LevelDebug},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			setupLogger(config.LogConfig{Level: tc.level, Format: "json"})
			h := slog.Default().Handler()
			assert.True(t, h.Enabled(context.Background(), tc.enabled))
			assert.False(t, h.Enabled(context.Background(), tc.dropped))
		})
	}
}

// notFoundConfig escribe un config que apunta a un servidor que responde 404 a todo.
func notFoundConfig(t *testing.T) (cfgPath, dsn string) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	dsn = filepath.Join(dir, "sniper.db")
	body := fmt.Sprintf(`universe:
  candidates: [AAA]
api:
  yahoo_base: %s
  rate_per_sec: 100
storage:
  dsn: %s
log:
  level: error
`, srv.URL, dsn)
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath, dsn
}

func TestRun_MissingConfig(t *testing.T) {
	code := run(context.Background(), options{configPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Equal(t, 1, code)
}

func TestRun_TickerWithoutDataFails(t *testing.T) {
	cfgPath, _ := notFoundConfig(t)
	code := run(context.Background(), options{configPath: cfgPath, ticker: " aaa ", noStore: true})
	assert.Equal(t, 1, code)
}

func TestRun_ScanPersistsAndCloses(t *testing.T) {
	cfgPath, dsn := notFoundConfig(t)
	code := run(context.Background(), options{configPath: cfgPath, refresh: true})
	require.Equal(t, 0, code)

	store, err := storage.NewSQLiteStorage(dsn)
	require.NoError(t, err)
	defer store.Close()

	tickers, ok, err := store.LoadUniverse(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "el universo vacío se guarda igual")
	assert.Empty(t, tickers)
}

func TestRun_CancelledScanFails(t *testing.T) {
	cfgPath, _ := notFoundConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code := run(ctx, options{configPath: cfgPath, noStore: true, refresh: true})
	assert.Equal(t, 1, code)
}
