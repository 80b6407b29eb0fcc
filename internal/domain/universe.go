package domain

// UniverseRules son los umbrales de liquidez/precio para entrar al universo.
type UniverseRules struct {
	MinBars      int
	MinAvgVolume float64
	MinPrice     float64
	MaxPrice     float64
}

// DefaultUniverseRules devuelve los umbrales de producción.
func DefaultUniverseRules() UniverseRules {
	return UniverseRules{
		MinBars:      40,
		MinAvgVolume: 500_000,
		MinPrice:     5,
		MaxPrice:     800,
	}
}

// Qualifies decide si un ticker entra al universo de escaneo.
//
//	len(history) >= MinBars
//	mean(volume) > MinAvgVolume
//	MinPrice < close(last) < MaxPrice
func (r UniverseRules) Qualifies(history PriceHistory) bool {
	if len(history) < r.MinBars || len(history) == 0 {
		return false
	}
	price := history.LastClose()
	return history.AvgVolume() > r.MinAvgVolume && price > r.MinPrice && price < r.MaxPrice
}
