package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
)

// FetchPriceHistory obtiene barras diarias entre from y to via GET /v8/finance/chart/{ticker}.
func (c *Client) FetchPriceHistory(ctx context.Context, ticker string, from, to time.Time) (domain.PriceHistory, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.base, url.PathEscape(ticker), q.Encode())

	var resp chartResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("yahoo.FetchPriceHistory %s: %w: %w", ticker, domain.ErrDataUnavailable, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo.FetchPriceHistory %s: %w: %s", ticker, domain.ErrDataUnavailable, describe(resp.Chart.Error))
	}
	return mapChart(resp.Chart.Result[0]), nil
}

// FetchExpirations lista las expiraciones disponibles via GET /v7/finance/options/{ticker}.
func (c *Client) FetchExpirations(ctx context.Context, ticker string) ([]time.Time, error) {
	res, err := c.fetchOptions(ctx, ticker, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo.FetchExpirations: %w", err)
	}
	return mapExpirations(res.ExpirationDates), nil
}

// FetchOptionChain obtiene calls y puts de una expiración via GET /v7/finance/options/{ticker}?date=.
func (c *Client) FetchOptionChain(ctx context.Context, ticker string, expiration time.Time) (domain.OptionChain, error) {
	res, err := c.fetchOptions(ctx, ticker, &expiration)
	if err != nil {
		return domain.OptionChain{}, fmt.Errorf("yahoo.FetchOptionChain: %w", err)
	}

	chain := domain.OptionChain{Ticker: ticker, Expiration: expiration.UTC()}
	if len(res.Options) == 0 {
		return chain, nil
	}
	set := res.Options[0]
	chain.Calls = mapContracts(set.Calls)
	chain.Puts = mapContracts(set.Puts)
	return chain, nil
}

func (c *Client) fetchOptions(ctx context.Context, ticker string, expiration *time.Time) (optionsResult, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/options/%s", c.base, url.PathEscape(ticker))
	if expiration != nil {
		endpoint += "?date=" + strconv.FormatInt(expiration.Unix(), 10)
	}

	var resp optionsResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return optionsResult{}, fmt.Errorf("%s: %w: %w", ticker, domain.ErrDataUnavailable, err)
	}
	if len(resp.OptionChain.Result) == 0 {
		return optionsResult{}, fmt.Errorf("%s: %w: %s", ticker, domain.ErrDataUnavailable, describe(resp.OptionChain.Error))
	}
	return resp.OptionChain.Result[0], nil
}

func describe(e *apiError) string {
	if e == nil {
		return "empty result"
	}
	return e.Code + ": " + e.Description
}
