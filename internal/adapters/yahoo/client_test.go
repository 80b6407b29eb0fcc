package yahoo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(ClientConfig{BaseURL: srv.URL, RatePerSec: 1000})
	c.retryWait = time.Millisecond
	return c
}

func TestFetchPriceHistory_Success(t *testing.T) {
	data := fixture(t, "yahoo_chart_aapl.json")
	from := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1786752000", r.URL.Query().Get("period1"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	history, err := newTestClient(srv).FetchPriceHistory(context.Background(), "AAPL", from, to)
	require.NoError(t, err)

	// la barra con close null se descarta
	require.Len(t, history, 3)
	assert.InDelta(t, 229.87, history[0].Close, 1e-9)
	assert.Equal(t, int64(41230000), history[0].Volume)
	assert.InDelta(t, 231.4, history.LastClose(), 1e-9)
	assert.Equal(t, int64(0), history[2].Volume)
	assert.True(t, history[0].Date.Before(history[1].Date))
	assert.Equal(t, time.UTC, history[0].Date.Location())
}

func TestFetchPriceHistory_UnknownTickerDoesNotTripBreaker(t *testing.T) {
	data := fixture(t, "yahoo_chart_notfound.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write(data)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for i := 0; i < 5; i++ {
		_, err := c.FetchPriceHistory(context.Background(), "ZZZZ", time.Now().AddDate(0, 0, -60), time.Now())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDataUnavailable))

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.Code)
	}
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}

func TestFetchPriceHistory_NullResult(t *testing.T) {
	data := fixture(t, "yahoo_chart_notfound.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchPriceHistory(context.Background(), "OLD", time.Now().AddDate(0, 0, -60), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	assert.Contains(t, err.Error(), "delisted")
}

func TestClient_ServerErrorsOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for i := 0; i < 3; i++ {
		_, err := c.FetchExpirations(context.Background(), "AAPL")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	}
	assert.Equal(t, int32(3*(maxRetries+1)), hits.Load())
	assert.Equal(t, gobreaker.StateOpen, c.breaker.State())

	// con el breaker abierto no se llega al servidor
	_, err := c.FetchExpirations(context.Background(), "MSFT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3*(maxRetries+1)), hits.Load())
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	data := fixture(t, "yahoo_options_aapl.json")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	exps, err := newTestClient(srv).FetchExpirations(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, exps, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchExpirations_SortedAscending(t *testing.T) {
	data := fixture(t, "yahoo_options_aapl.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/options/AAPL", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("date"))
		w.Write(data)
	}))
	defer srv.Close()

	exps, err := newTestClient(srv).FetchExpirations(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, exps, 2)
	assert.Equal(t, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), exps[0])
	assert.Equal(t, time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC), exps[1])
}

func TestFetchOptionChain_MapsContracts(t *testing.T) {
	data := fixture(t, "yahoo_options_aapl.json")
	exp := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1795132800", r.URL.Query().Get("date"))
		w.Write(data)
	}))
	defer srv.Close()

	chain, err := newTestClient(srv).FetchOptionChain(context.Background(), "AAPL", exp)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", chain.Ticker)
	assert.Equal(t, exp, chain.Expiration)

	require.Len(t, chain.Calls, 2)
	c := chain.Calls[0]
	assert.Equal(t, "AAPL261120C00235000", c.Symbol)
	assert.Equal(t, 235.0, c.Strike)
	assert.Equal(t, int64(2400), c.Volume)
	assert.Equal(t, int64(6100), c.OpenInterest)
	require.NotNil(t, c.ImpliedVolatility)
	assert.InDelta(t, 0.61, *c.ImpliedVolatility, 1e-9)
	assert.Nil(t, c.Delta, "Yahoo no publica greeks")
	assert.NoError(t, c.Validate())

	// volumen/OI/IV ausentes: IV es opcional, volumen y OI no
	assert.Equal(t, []string{"volume", "openInterest"}, chain.Calls[1].Missing)
	assert.Nil(t, chain.Calls[1].ImpliedVolatility)
	assert.ErrorIs(t, chain.Calls[1].Validate(), domain.ErrMalformedContract)

	require.Len(t, chain.Puts, 1)
	assert.True(t, math.IsNaN(chain.Puts[0].LastPrice))
	assert.ErrorIs(t, chain.Puts[0].Validate(), domain.ErrMalformedContract)
}

func TestMapContracts_MissingVolumeIsNotScored(t *testing.T) {
	strike, last := 240.0, 0.74
	oi := int64(6000)
	raw := []contractRaw{{ContractSymbol: "AAPL261120C00240000", Strike: &strike, LastPrice: &last, OpenInterest: &oi}}

	cs := mapContracts(raw)
	require.Len(t, cs, 1)
	assert.Equal(t, []string{"volume"}, cs[0].Missing)

	pc := domain.PriceContext{High20: 230, Low20: 210, Price: 220, HasRange: true}
	_, reason, err := domain.NewScorer(0).Score("AAPL", time.Time{}, domain.Call, cs[0], pc)
	assert.Equal(t, domain.SkipMalformedContract, reason)
	assert.ErrorIs(t, err, domain.ErrMalformedContract)
}
