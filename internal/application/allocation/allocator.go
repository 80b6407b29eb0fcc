package allocation

// allocator.go: reparto greedy de capital en contratos enteros.
//
// El capital es un único saldo que se va consumiendo en orden de score: cada cap
// se calcula sobre el saldo ACTUAL, no sobre el inicial, así que los caps se
// encogen a medida que se asigna.

import (
	"log/slog"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/shopspring/decimal"
)

var sharesPerContract = decimal.NewFromInt(domain.SharesPerContract)

// Allocate asigna contratos a los candidatos en orden de score descendente (estable).
//
// Por candidato:
//
//	price = lastPrice × 100
//	cap   = capital × tier(score)
//	price > cap        → skip
//	n = floor(cap / price), n == 0 → skip
//	totalCost = n × price; capital -= totalCost
func Allocate(candidates []domain.ScoredOption, startingCapital decimal.Decimal, tiers domain.Tiers) domain.AllocationPlan {
	plan := domain.AllocationPlan{
		StartingCapital:  startingCapital,
		RemainingCapital: startingCapital,
	}

	capital := startingCapital
	for _, c := range domain.SortByScore(candidates) {
		entry, ok := allocateOne(c, capital, tiers)
		if !ok {
			continue
		}
		capital = capital.Sub(entry.TotalCost)
		plan.Entries = append(plan.Entries, entry)
	}
	plan.RemainingCapital = capital

	slog.Debug("allocation complete",
		"candidates", len(candidates),
		"entries", len(plan.Entries),
		"remaining", capital.StringFixed(2),
	)
	return plan
}

// allocateOne dimensiona un candidato contra el saldo actual.
func allocateOne(c domain.ScoredOption, capital decimal.Decimal, tiers domain.Tiers) (domain.AllocationEntry, bool) {
	price := decimal.NewFromFloat(c.LastPrice).Mul(sharesPerContract)
	if !price.IsPositive() {
		// lastPrice 0 daría contratos infinitos
		return domain.AllocationEntry{}, false
	}

	limit := capital.Mul(decimal.NewFromFloat(tiers.Pct(c.Score)))
	if price.GreaterThan(limit) {
		return domain.AllocationEntry{}, false
	}

	n := limit.Div(price).Floor().IntPart()
	// Div redondea a DivisionPrecision decimales; corregimos si se pasó del cap
	for n > 0 && price.Mul(decimal.NewFromInt(n)).GreaterThan(limit) {
		n--
	}
	if n <= 0 {
		return domain.AllocationEntry{}, false
	}

	return domain.AllocationEntry{
		Ticker:     c.Ticker,
		Type:       c.Type,
		Strike:     c.Strike,
		Expiration: c.Expiration,
		Score:      c.Score,
		Contracts:  n,
		TotalCost:  price.Mul(decimal.NewFromInt(n)),
	}, true
}

// Candidates une las tablas top: primero calls, luego puts.
// Allocate reordena por score, así que este orden solo decide los empates.
func Candidates(sel domain.Selection) []domain.ScoredOption {
	out := make([]domain.ScoredOption, 0, len(sel.Calls)+len(sel.Puts))
	out = append(out, sel.Calls...)
	out = append(out, sel.Puts...)
	return out
}
