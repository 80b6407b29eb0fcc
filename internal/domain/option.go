package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OptionType es el lado del contrato.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// OptionContractRaw es un contrato tal como llega del proveedor de datos.
// Los campos requeridos ausentes (strike, lastPrice) llegan como NaN; los enteros
// ausentes (volume, openInterest) se listan en Missing.
type OptionContractRaw struct {
	Symbol            string
	Strike            float64
	Bid               float64
	Ask               float64
	LastPrice         float64
	Volume            int64
	OpenInterest      int64
	ImpliedVolatility *float64 // nil = el proveedor no lo publica
	Delta             *float64 // nil = el proveedor no lo publica
	Missing           []string // campos requeridos que el proveedor no publicó
}

// Validate devuelve ErrMalformedContract si algún campo numérico es inválido.
func (c OptionContractRaw) Validate() error {
	if len(c.Missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedContract, strings.Join(c.Missing, ", "))
	}
	if !finite(c.Strike) || c.Strike <= 0 {
		return fmt.Errorf("%w: strike %v", ErrMalformedContract, c.Strike)
	}
	for name, v := range map[string]float64{"bid": c.Bid, "ask": c.Ask, "lastPrice": c.LastPrice} {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%w: %s %v", ErrMalformedContract, name, v)
		}
	}
	if c.Volume < 0 || c.OpenInterest < 0 {
		return fmt.Errorf("%w: volume %d openInterest %d", ErrMalformedContract, c.Volume, c.OpenInterest)
	}
	if c.ImpliedVolatility != nil && (!finite(*c.ImpliedVolatility) || *c.ImpliedVolatility < 0) {
		return fmt.Errorf("%w: impliedVolatility %v", ErrMalformedContract, *c.ImpliedVolatility)
	}
	if c.Delta != nil && (!finite(*c.Delta) || *c.Delta < -1 || *c.Delta > 1) {
		return fmt.Errorf("%w: delta %v", ErrMalformedContract, *c.Delta)
	}
	return nil
}

// OptionChain agrupa calls y puts de un ticker para una expiración.
type OptionChain struct {
	Ticker     string
	Expiration time.Time
	Calls      []OptionContractRaw
	Puts       []OptionContractRaw
}

// ScoredOption es un contrato normalizado con su score de oportunidad.
// Se crea una vez por contrato y no se muta.
type ScoredOption struct {
	Ticker       string
	Type         OptionType
	Expiration   time.Time
	Strike       float64
	StockPrice   float64
	Bid          float64
	Ask          float64
	LastPrice    float64
	Volume       int64
	OpenInterest int64
	Score        int
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
