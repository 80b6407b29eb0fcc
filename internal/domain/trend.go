package domain

// TrendScore puntúa la tendencia del subyacente para el informe manual de un ticker:
// +3 si el último cierre supera la SMA50, +2 si supera la SMA200.
// Una media sin barras suficientes no puntúa. ok=false si la serie está vacía.
func TrendScore(history PriceHistory) (score int, ok bool) {
	last, ok := history.Last()
	if !ok {
		return 0, false
	}
	if sma, ok := history.SMA(50); ok && last.Close > sma {
		score += 3
	}
	if sma, ok := history.SMA(200); ok && last.Close > sma {
		score += 2
	}
	return score, true
}
