package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
)

type fakeMarket struct {
	mu          sync.Mutex
	expirations map[string][]time.Time
	chains      map[string]domain.OptionChain
	histories   map[string]domain.PriceHistory
	expErr      map[string]error
	historyHits map[string]int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		expirations: make(map[string][]time.Time),
		chains:      make(map[string]domain.OptionChain),
		histories:   make(map[string]domain.PriceHistory),
		expErr:      make(map[string]error),
		historyHits: make(map[string]int),
	}
}

func (f *fakeMarket) FetchPriceHistory(_ context.Context, ticker string, _, _ time.Time) (domain.PriceHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyHits[ticker]++
	return f.histories[ticker], nil
}

func (f *fakeMarket) FetchExpirations(_ context.Context, ticker string) ([]time.Time, error) {
	if err := f.expErr[ticker]; err != nil {
		return nil, err
	}
	return f.expirations[ticker], nil
}

func (f *fakeMarket) FetchOptionChain(_ context.Context, ticker string, exp time.Time) (domain.OptionChain, error) {
	chain, ok := f.chains[ticker]
	if !ok {
		return domain.OptionChain{}, errors.New("no chain")
	}
	chain.Expiration = exp
	return chain, nil
}

type fakeCache struct {
	mu    sync.Mutex
	data  map[string]domain.PriceHistory
	saves int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]domain.PriceHistory)}
}

func (c *fakeCache) LoadHistory(_ context.Context, ticker string, _ time.Duration) (domain.PriceHistory, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.data[ticker]
	return h, ok, nil
}

func (c *fakeCache) SaveHistory(_ context.Context, ticker string, h domain.PriceHistory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[ticker] = h
	c.saves++
	return nil
}

type fakeStore struct {
	scans     []domain.ScanResult
	backtests []domain.BacktestStats
	err       error
}

func (s *fakeStore) SaveScan(_ context.Context, r domain.ScanResult) error {
	s.scans = append(s.scans, r)
	return s.err
}

func (s *fakeStore) SaveBacktest(_ context.Context, st domain.BacktestStats) error {
	s.backtests = append(s.backtests, st)
	return s.err
}

func (s *fakeStore) Close() error { return nil }

type fakeNotifier struct {
	scans []domain.ScanResult
	err   error
}

func (n *fakeNotifier) NotifyScan(_ context.Context, r domain.ScanResult) error {
	n.scans = append(n.scans, r)
	return n.err
}

func (n *fakeNotifier) NotifyBacktest(context.Context, domain.BacktestStats) error { return n.err }
