package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrices struct {
	histories map[string]domain.PriceHistory
	errs      map[string]error
	calls     []string
}

func (f *fakePrices) FetchPriceHistory(_ context.Context, ticker string, _, _ time.Time) (domain.PriceHistory, error) {
	f.calls = append(f.calls, ticker)
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	return f.histories[ticker], nil
}

type fakeUniverseStore struct {
	tickers []string
	ok      bool
	saved   [][]string
}

func (s *fakeUniverseStore) LoadUniverse(context.Context) ([]string, bool, error) {
	return s.tickers, s.ok, nil
}

func (s *fakeUniverseStore) SaveUniverse(_ context.Context, tickers []string) error {
	s.saved = append(s.saved, tickers)
	s.tickers, s.ok = tickers, true
	return nil
}

func bars(n int, close float64, volume int64) domain.PriceHistory {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	h := make(domain.PriceHistory, n)
	for i := range h {
		h[i] = domain.PriceBar{Date: start.AddDate(0, 0, i), Close: close, Volume: volume}
	}
	return h
}

func seedPrices() *fakePrices {
	return &fakePrices{
		histories: map[string]domain.PriceHistory{
			"AAPL": bars(45, 200, 1_000_000),
			"PENN": bars(45, 3, 1_000_000), // precio fuera de banda
			"NEW":  bars(20, 50, 1_000_000),
			"THIN": bars(45, 50, 1_000),
		},
		errs: map[string]error{"DEAD": errors.New("404")},
	}
}

func TestBuilder_Build_Outcomes(t *testing.T) {
	prices := seedPrices()
	store := &fakeUniverseStore{}
	b := NewBuilder(DefaultConfig(), prices, store)

	res, err := b.Build(context.Background(), []string{"AAPL", "PENN", "NEW", "THIN", "DEAD", "NONE"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, res.Tickers)
	reasons := make(map[string]domain.SkipReason)
	for _, o := range res.Outcomes {
		reasons[o.Ticker] = o.Reason
	}
	assert.Equal(t, domain.SkipNone, reasons["AAPL"])
	assert.Equal(t, domain.SkipNotQualified, reasons["PENN"])
	assert.Equal(t, domain.SkipTooShort, reasons["NEW"])
	assert.Equal(t, domain.SkipNotQualified, reasons["THIN"])
	assert.Equal(t, domain.SkipDataUnavailable, reasons["DEAD"])
	assert.Equal(t, domain.SkipDataUnavailable, reasons["NONE"])

	require.Len(t, store.saved, 1)
	assert.Equal(t, []string{"AAPL"}, store.saved[0])
}

func TestBuilder_Build_DedupesAndCaps(t *testing.T) {
	prices := seedPrices()
	cfg := DefaultConfig()
	cfg.MaxCandidates = 3
	b := NewBuilder(cfg, prices, nil)

	_, err := b.Build(context.Background(), []string{"AAPL", "PENN", "AAPL", "", "NEW", "THIN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "PENN", "NEW"}, prices.calls)
}

func TestBuilder_Load_UsesCacheUnlessRefresh(t *testing.T) {
	prices := seedPrices()
	store := &fakeUniverseStore{tickers: []string{"MSFT", "NVDA"}, ok: true}
	b := NewBuilder(DefaultConfig(), prices, store)

	got, err := b.Load(context.Background(), []string{"AAPL"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "NVDA"}, got)
	assert.Empty(t, prices.calls)

	got, err = b.Load(context.Background(), []string{"AAPL"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, got)
	assert.Equal(t, []string{"AAPL"}, prices.calls)
}

func TestBuilder_Load_BuildsWhenNoCache(t *testing.T) {
	store := &fakeUniverseStore{}
	b := NewBuilder(DefaultConfig(), seedPrices(), store)

	got, err := b.Load(context.Background(), []string{"AAPL", "THIN"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, got)
	assert.True(t, store.ok)
}

func TestBuilder_Build_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(DefaultConfig(), seedPrices(), nil)
	_, err := b.Build(ctx, []string{"AAPL"})
	assert.ErrorIs(t, err, context.Canceled)
}
