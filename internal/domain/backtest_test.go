package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func closesHistory(closes ...float64) PriceHistory {
	h := make(PriceHistory, len(closes))
	for i, c := range closes {
		h[i] = PriceBar{Close: c, High: c, Low: c, Open: c}
	}
	return h
}

func risingHistory(n int, step float64) PriceHistory {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 * math.Pow(1+step, float64(i))
	}
	return closesHistory(closes...)
}

func TestSimulateRolling_RisingSeriesAllWins(t *testing.T) {
	// 1%/barra → cada ventana de 5 barras sube ~5.1% > 2%
	h := risingHistory(40, 0.01)
	st := SimulateRolling(h, BacktestState{Capital: 500}, DefaultRollingParams())

	assert.Equal(t, 25, st.Trades) // índices 10..34
	assert.Equal(t, st.Trades, st.Wins)
	assert.Equal(t, 0, st.Losses)
	assert.Greater(t, st.Capital, 500.0)
}

func TestSimulateRolling_FlatSeriesNoTrades(t *testing.T) {
	h := closesHistory(make([]float64, 40)...)
	for i := range h {
		h[i].Close = 100
	}
	st := SimulateRolling(h, BacktestState{Capital: 500}, DefaultRollingParams())
	assert.Equal(t, 0, st.Trades)
	assert.Equal(t, 500.0, st.Capital)

	stats := NewBacktestStats(500, st, 1, 0)
	assert.True(t, stats.NoTrades)
	assert.Equal(t, 0.0, stats.WinRatePct)
}

func TestSimulateRolling_CompoundsSequentially(t *testing.T) {
	p := RollingParams{PositionFraction: 0.5, HoldDays: 1, MinMove: 0.02, LookbackSkip: 0, LookaheadSkip: 1}
	h := closesHistory(100, 110, 99)

	st := SimulateRolling(h, BacktestState{Capital: 1000}, p)
	// i=0: +10% sobre 500 → 1050; i=1: -10% sobre 525 → 997.5
	assert.Equal(t, 2, st.Trades)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 1, st.Losses)
	assert.InDelta(t, 997.5, st.Capital, 1e-9)
}

func TestSimulateRolling_MoveAtThresholdDoesNotTrade(t *testing.T) {
	p := RollingParams{PositionFraction: 0.2, HoldDays: 1, MinMove: 0.02, LookbackSkip: 0, LookaheadSkip: 1}
	h := closesHistory(100, 102, 102)
	st := SimulateRolling(h, BacktestState{Capital: 1000}, p)
	assert.Equal(t, 0, st.Trades)
}

func TestSimulateRolling_OverlappingWindows(t *testing.T) {
	// Un único salto en la barra 15 participa en las 5 ventanas que lo cruzan.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
		if i >= 15 {
			closes[i] = 110
		}
	}
	st := SimulateRolling(closesHistory(closes...), BacktestState{Capital: 1000}, DefaultRollingParams())
	assert.Equal(t, 5, st.Trades) // entradas 10..14
	assert.Equal(t, 5, st.Wins)
}

func TestSimulateRolling_ShortSeriesIsSafe(t *testing.T) {
	st := SimulateRolling(closesHistory(1, 2, 3), BacktestState{Capital: 100}, DefaultRollingParams())
	assert.Equal(t, BacktestState{Capital: 100}, st)

	// HoldDays mayor que LookaheadSkip: el índice de salida queda acotado
	p := DefaultRollingParams()
	p.HoldDays = 8
	st = SimulateRolling(risingHistory(20, 0.01), BacktestState{Capital: 100}, p)
	assert.Equal(t, 2, st.Trades) // índices 10 y 11
}

func TestNewBacktestStats_Rounding(t *testing.T) {
	st := BacktestState{Capital: 523.456, Trades: 3, Wins: 2, Losses: 1}
	stats := NewBacktestStats(500, st, 4, 1)

	assert.False(t, stats.NoTrades)
	assert.Equal(t, 66.67, stats.WinRatePct)
	assert.Equal(t, 4.69, stats.TotalReturnPct)
	assert.Equal(t, 523.46, stats.FinalCapital)
	assert.Equal(t, 500.0, stats.StartingCapital)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 4, stats.TickersTested)
	assert.Equal(t, 1, stats.TickersSkipped)
}

func TestSimulateRolling_EveryWindowTradesFlatSeries(t *testing.T) {
	h := closesHistory(make([]float64, 40)...)
	for i := range h {
		h[i].Close = 100
	}

	p := DefaultRollingParams()
	p.MinMove = 0
	st := SimulateRolling(h, BacktestState{Capital: 500}, p)
	assert.Equal(t, 0, st.Trades, "sin umbral un move de 0 sigue sin operar")

	p.EveryWindow = true
	st = SimulateRolling(h, BacktestState{Capital: 500}, p)
	assert.Equal(t, 25, st.Trades) // índices 10..34
	assert.Equal(t, 0, st.Wins)
	assert.Equal(t, 25, st.Losses)
	assert.Equal(t, 500.0, st.Capital)
}
