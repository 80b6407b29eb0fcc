package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationEntry es una asignación de contratos enteros dentro del plan.
// TotalCost = Contracts × LastPrice × 100, y nunca supera el cap vigente al asignarse.
type AllocationEntry struct {
	Ticker     string
	Type       OptionType
	Strike     float64
	Expiration time.Time
	Score      int
	Contracts  int64
	TotalCost  decimal.Decimal
}

// AllocationPlan es el resultado del allocator: entradas en orden de proceso
// y el capital que queda tras la pasada completa.
type AllocationPlan struct {
	Entries          []AllocationEntry
	StartingCapital  decimal.Decimal
	RemainingCapital decimal.Decimal
}

// Deployed devuelve la suma de TotalCost de todas las entradas.
func (p AllocationPlan) Deployed() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p.Entries {
		total = total.Add(e.TotalCost)
	}
	return total
}

// Empty devuelve true si ningún contrato cupo en las reglas de capital.
func (p AllocationPlan) Empty() bool {
	return len(p.Entries) == 0
}

// AllocationTier asigna un porcentaje de capital a partir de un score mínimo.
type AllocationTier struct {
	MinScore int
	Pct      float64
}

// Tiers son los tramos ordenados de mayor a menor MinScore; Fallback aplica al resto.
type Tiers struct {
	Levels   []AllocationTier
	Fallback float64
}

// DefaultTiers: score >= 15 → 40%, >= 10 → 30%, resto → 20%.
func DefaultTiers() Tiers {
	return Tiers{
		Levels: []AllocationTier{
			{MinScore: 15, Pct: 0.4},
			{MinScore: 10, Pct: 0.3},
		},
		Fallback: 0.2,
	}
}

// Pct devuelve el porcentaje de capital para un score.
func (t Tiers) Pct(score int) float64 {
	for _, lvl := range t.Levels {
		if score >= lvl.MinScore {
			return lvl.Pct
		}
	}
	return t.Fallback
}
