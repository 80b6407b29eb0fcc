package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// SharesPerContract es el multiplicador estándar de un contrato de opciones.
	SharesPerContract = 100

	// DefaultMaxContractCost descarta contratos cuyo coste (lastPrice×100) supera esto.
	DefaultMaxContractCost = 250.0

	// BreakoutWindow es la ventana de barras para el máximo/mínimo de breakout.
	BreakoutWindow = 20

	defaultDelta = 0.4
	defaultIV    = 0.0
)

// PriceContext es el contexto del subyacente compartido por todos sus contratos.
// Se calcula una vez por ticker.
type PriceContext struct {
	High20   float64
	Low20    float64
	Price    float64
	HasRange bool // false si hay menos de BreakoutWindow barras: no dispara breakout
}

// NewPriceContext calcula high/low de las últimas `window` barras y el precio actual.
func NewPriceContext(history PriceHistory, window int) (PriceContext, error) {
	last, ok := history.Last()
	if !ok {
		return PriceContext{}, fmt.Errorf("domain.NewPriceContext: %w: empty history", ErrDataUnavailable)
	}
	high, low, ok := history.HighLow(window)
	return PriceContext{High20: high, Low20: low, Price: last.Close, HasRange: ok}, nil
}

// ScoreContract calcula el score entero de oportunidad de un contrato.
//
// Factores (aditivos):
//   - volume > 1000                          +2
//   - openInterest > 2000                    +3
//   - openInterest > 5000 && volume > 2000   +4 (gamma squeeze, se suma al anterior)
//   - 0.35 <= |delta| <= 0.55                +3
//   - |delta| < 0.25                         -2
//   - impliedVolatility > 0.5                +2
//   - CALL con strike > high20               +1
//   - PUT con strike < low20                 +1
//
// Delta ausente vale 0.4 (cae siempre en la banda +3); IV ausente vale 0.
func ScoreContract(c OptionContractRaw, typ OptionType, pc PriceContext) int {
	score := 0

	if c.Volume > 1000 {
		score += 2
	}
	if c.OpenInterest > 2000 {
		score += 3
	}
	if c.OpenInterest > 5000 && c.Volume > 2000 {
		score += 4
	}

	delta := defaultDelta
	if c.Delta != nil {
		delta = *c.Delta
	}
	absDelta := math.Abs(delta)
	if absDelta >= 0.35 && absDelta <= 0.55 {
		score += 3
	} else if absDelta < 0.25 {
		score -= 2
	}

	iv := defaultIV
	if c.ImpliedVolatility != nil {
		iv = *c.ImpliedVolatility
	}
	if iv > 0.5 {
		score += 2
	}

	if pc.HasRange {
		if typ == Call && c.Strike > pc.High20 {
			score++
		} else if typ == Put && c.Strike < pc.Low20 {
			score++
		}
	}

	return score
}

// Scorer aplica el gating de coste y produce ScoredOption normalizadas.
type Scorer struct {
	MaxContractCost float64
}

// NewScorer crea un Scorer; maxContractCost <= 0 usa DefaultMaxContractCost.
func NewScorer(maxContractCost float64) Scorer {
	if maxContractCost <= 0 {
		maxContractCost = DefaultMaxContractCost
	}
	return Scorer{MaxContractCost: maxContractCost}
}

// Score valida, puntúa y filtra un contrato.
// Devuelve SkipMalformedContract (con error) o SkipTooExpensive cuando no emite registro.
func (s Scorer) Score(ticker string, expiration time.Time, typ OptionType, c OptionContractRaw, pc PriceContext) (ScoredOption, SkipReason, error) {
	if err := c.Validate(); err != nil {
		return ScoredOption{}, SkipMalformedContract, err
	}

	score := ScoreContract(c, typ, pc)

	if c.LastPrice*SharesPerContract > s.MaxContractCost {
		return ScoredOption{}, SkipTooExpensive, nil
	}

	return ScoredOption{
		Ticker:       ticker,
		Type:         typ,
		Expiration:   expiration,
		Strike:       Round2(c.Strike),
		StockPrice:   Round2(pc.Price),
		Bid:          Round2(c.Bid),
		Ask:          Round2(c.Ask),
		LastPrice:    Round2(c.LastPrice),
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
		Score:        score,
	}, SkipNone, nil
}
