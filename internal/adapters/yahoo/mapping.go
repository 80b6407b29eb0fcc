package yahoo

import (
	"math"
	"sort"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
)

// mapChart convierte la respuesta de chart a barras diarias ascendentes.
// Las barras sin close se descartan; volumen ausente vale 0.
func mapChart(r chartResult) domain.PriceHistory {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]

	history := make(domain.PriceHistory, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		bar := domain.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *cl,
			Open:  valueOr(at(q.Open, i), *cl),
			High:  valueOr(at(q.High, i), *cl),
			Low:   valueOr(at(q.Low, i), *cl),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		history = append(history, bar)
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})
	return history
}

// mapExpirations convierte unix timestamps a fechas UTC, la más cercana primero.
func mapExpirations(raw []int64) []time.Time {
	out := make([]time.Time, 0, len(raw))
	for _, ts := range raw {
		out = append(out, time.Unix(ts, 0).UTC())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// mapContracts convierte los contratos raw.
// strike y lastPrice ausentes quedan en NaN y volume/OI ausentes van a Missing,
// así Validate los marca como malformados. bid/ask ausentes valen 0.
func mapContracts(raw []contractRaw) []domain.OptionContractRaw {
	out := make([]domain.OptionContractRaw, 0, len(raw))
	for _, r := range raw {
		c := domain.OptionContractRaw{
			Symbol:            r.ContractSymbol,
			Strike:            valueOr(r.Strike, math.NaN()),
			LastPrice:         valueOr(r.LastPrice, math.NaN()),
			Bid:               valueOr(r.Bid, 0),
			Ask:               valueOr(r.Ask, 0),
			ImpliedVolatility: r.ImpliedVolatility,
		}
		if r.Volume != nil {
			c.Volume = *r.Volume
		} else {
			c.Missing = append(c.Missing, "volume")
		}
		if r.OpenInterest != nil {
			c.OpenInterest = *r.OpenInterest
		} else {
			c.Missing = append(c.Missing, "openInterest")
		}
		out = append(out, c)
	}
	return out
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
