package domain

import "math"

// RollingParams configura el backtest rolling de momentum.
type RollingParams struct {
	PositionFraction float64 // fracción del capital actual por trade
	HoldDays         int     // barras entre entrada y salida
	MinMove          float64 // |move| debe superar esto para operar
	LookbackSkip     int     // primer índice evaluado
	LookaheadSkip    int     // barras reservadas al final de la serie
	MinBars          int     // series más cortas se excluyen del batch
	EveryWindow      bool    // opera todas las ventanas, ignora MinMove (variante snapshot)
}

// DefaultRollingParams devuelve los parámetros del backtest de 90 días.
func DefaultRollingParams() RollingParams {
	return RollingParams{
		PositionFraction: 0.2,
		HoldDays:         5,
		MinMove:          0.02,
		LookbackSkip:     10,
		LookaheadSkip:    5,
		MinBars:          30,
	}
}

// BacktestState es el estado que se muta paso a paso durante la simulación.
type BacktestState struct {
	Capital float64
	Trades  int
	Wins    int
	Losses  int // se reporta pero no entra en WinRate
}

// SimulateRolling recorre cada índice de la serie y aplica la regla de momentum
// con capital compuesto. Las ventanas se solapan: cada índice se evalúa aunque
// el anterior haya operado.
//
//	for i := LookbackSkip; i <= len-LookaheadSkip-1 (y i+HoldDays < len); i++
//	    move = (close[i+HoldDays] - close[i]) / close[i]
//	    |move| > MinMove → pnl = capital × PositionFraction × move
//
// Con EveryWindow todas las ventanas operan y un move de 0 cuenta como pérdida.
func SimulateRolling(history PriceHistory, state BacktestState, p RollingParams) BacktestState {
	closes := history.Closes()
	last := len(closes) - p.LookaheadSkip - 1
	if maxIdx := len(closes) - p.HoldDays - 1; maxIdx < last {
		last = maxIdx
	}

	for i := p.LookbackSkip; i <= last; i++ {
		entry := closes[i]
		if entry <= 0 {
			continue
		}
		exit := closes[i+p.HoldDays]
		move := (exit - entry) / entry
		if !p.EveryWindow && math.Abs(move) <= p.MinMove {
			continue
		}

		pnl := state.Capital * p.PositionFraction * move
		state.Capital += pnl
		state.Trades++
		if pnl > 0 {
			state.Wins++
		} else {
			state.Losses++
		}
	}
	return state
}

// BacktestStats es el resumen reportable de una corrida.
type BacktestStats struct {
	RunID           string
	Trades          int
	Wins            int
	Losses          int
	WinRatePct      float64
	TotalReturnPct  float64
	StartingCapital float64
	FinalCapital    float64
	NoTrades        bool // ningún índice superó MinMove: resultado informativo, no error
	TickersTested   int
	TickersSkipped  int
}

// NewBacktestStats calcula el resumen redondeado a 2 decimales (porcentajes ×100).
func NewBacktestStats(startingCapital float64, st BacktestState, tested, skipped int) BacktestStats {
	stats := BacktestStats{
		Trades:          st.Trades,
		Wins:            st.Wins,
		Losses:          st.Losses,
		StartingCapital: Round2(startingCapital),
		FinalCapital:    Round2(st.Capital),
		TickersTested:   tested,
		TickersSkipped:  skipped,
	}
	if st.Trades == 0 {
		stats.NoTrades = true
		return stats
	}
	stats.WinRatePct = Round2(float64(st.Wins) / float64(st.Trades) * 100)
	if startingCapital != 0 {
		stats.TotalReturnPct = Round2((st.Capital - startingCapital) / startingCapital * 100)
	}
	return stats
}
