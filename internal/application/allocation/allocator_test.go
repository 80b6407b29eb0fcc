package allocation

import (
	"math/rand"
	"testing"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opt(ticker string, typ domain.OptionType, score int, last float64) domain.ScoredOption {
	return domain.ScoredOption{Ticker: ticker, Type: typ, Strike: 100, LastPrice: last, Score: score}
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestAllocate_TieredGreedyPass(t *testing.T) {
	candidates := []domain.ScoredOption{
		opt("C", domain.Call, 6, 1.20),  // cap 0.2×700... se procesa tercero
		opt("A", domain.Call, 15, 1.50), // 40% de 1000 = 400 → 2 × 150
		opt("D", domain.Put, 5, 0.45),
		opt("B", domain.Put, 12, 2.00), // 30% de 700 = 210 → 1 × 200
	}

	plan := Allocate(candidates, dec(1000), domain.DefaultTiers())

	require.Len(t, plan.Entries, 3)
	assert.Equal(t, "A", plan.Entries[0].Ticker)
	assert.Equal(t, int64(2), plan.Entries[0].Contracts)
	assert.True(t, dec(300).Equal(plan.Entries[0].TotalCost))

	assert.Equal(t, "B", plan.Entries[1].Ticker)
	assert.Equal(t, int64(1), plan.Entries[1].Contracts)
	assert.True(t, dec(200).Equal(plan.Entries[1].TotalCost))

	// C: 120 > 20% de 500 = 100 → skip. D: 20% de 500 = 100 → 2 × 45
	assert.Equal(t, "D", plan.Entries[2].Ticker)
	assert.Equal(t, int64(2), plan.Entries[2].Contracts)
	assert.True(t, dec(90).Equal(plan.Entries[2].TotalCost))

	assert.True(t, dec(410).Equal(plan.RemainingCapital), "remaining=%s", plan.RemainingCapital)
	assert.True(t, dec(590).Equal(plan.Deployed()))
}

func TestAllocate_EqualScoresKeepEncounterOrder(t *testing.T) {
	x := opt("X", domain.Call, 5, 2.00)
	y := opt("Y", domain.Put, 5, 1.70)

	first := Allocate([]domain.ScoredOption{x, y}, dec(1000), domain.DefaultTiers())
	require.Len(t, first.Entries, 1)
	assert.Equal(t, "X", first.Entries[0].Ticker)
	assert.True(t, dec(800).Equal(first.RemainingCapital))

	swapped := Allocate([]domain.ScoredOption{y, x}, dec(1000), domain.DefaultTiers())
	require.Len(t, swapped.Entries, 1)
	assert.Equal(t, "Y", swapped.Entries[0].Ticker)
	assert.True(t, dec(830).Equal(swapped.RemainingCapital))
}

func TestAllocate_SkipsWhenContractExceedsCap(t *testing.T) {
	plan := Allocate([]domain.ScoredOption{opt("BIG", domain.Call, 20, 2.50)}, dec(500), domain.DefaultTiers())
	// 250 > 40% de 500 = 200
	assert.True(t, plan.Empty())
	assert.True(t, dec(500).Equal(plan.RemainingCapital))
}

func TestAllocate_SkipsZeroPrice(t *testing.T) {
	plan := Allocate([]domain.ScoredOption{opt("FREE", domain.Call, 20, 0)}, dec(500), domain.DefaultTiers())
	assert.True(t, plan.Empty())
}

func TestAllocate_EmptyCandidates(t *testing.T) {
	plan := Allocate(nil, dec(500), domain.DefaultTiers())
	assert.True(t, plan.Empty())
	assert.True(t, dec(500).Equal(plan.RemainingCapital))
	assert.True(t, dec(500).Equal(plan.StartingCapital))
}

func TestAllocate_CapitalInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tiers := domain.DefaultTiers()

	for run := 0; run < 200; run++ {
		var candidates []domain.ScoredOption
		for i := 0; i < 10; i++ {
			last := float64(rng.Intn(250)+1) / 100 // 0.01 .. 2.50
			candidates = append(candidates, opt("T", domain.Call, rng.Intn(20)-2, last))
		}
		start := dec(float64(rng.Intn(5000) + 100))

		plan := Allocate(candidates, start, tiers)

		capital := start
		for _, e := range plan.Entries {
			assert.Greater(t, e.Contracts, int64(0))
			limit := capital.Mul(decimal.NewFromFloat(tiers.Pct(e.Score)))
			assert.True(t, e.TotalCost.LessThanOrEqual(limit), "cost %s > cap %s", e.TotalCost, limit)
			capital = capital.Sub(e.TotalCost)
		}
		assert.True(t, plan.Deployed().LessThanOrEqual(start))
		assert.True(t, start.Sub(plan.Deployed()).Equal(plan.RemainingCapital))
		assert.False(t, plan.RemainingCapital.IsNegative())
	}
}

func TestCandidates_CallsThenPuts(t *testing.T) {
	sel := domain.Selection{
		Calls: []domain.ScoredOption{opt("C1", domain.Call, 9, 1)},
		Puts:  []domain.ScoredOption{opt("P1", domain.Put, 9, 1)},
	}
	got := Candidates(sel)
	require.Len(t, got, 2)
	assert.Equal(t, "C1", got[0].Ticker)
	assert.Equal(t, "P1", got[1].Ticker)
}
