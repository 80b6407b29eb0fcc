package domain

import (
	"math"
	"strconv"
	"time"
)

// PriceBar es una sesión diaria del subyacente.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceHistory es la serie diaria de un ticker, ordenada por fecha ascendente.
// Puede venir vacía o corta desde el proveedor; los consumidores deben tolerarlo.
type PriceHistory []PriceBar

// Last devuelve la barra más reciente.
func (h PriceHistory) Last() (PriceBar, bool) {
	if len(h) == 0 {
		return PriceBar{}, false
	}
	return h[len(h)-1], true
}

// LastClose devuelve el cierre más reciente, o 0 si la serie está vacía.
func (h PriceHistory) LastClose() float64 {
	last, ok := h.Last()
	if !ok {
		return 0
	}
	return last.Close
}

// AvgVolume devuelve la media del volumen sobre todas las barras.
func (h PriceHistory) AvgVolume() float64 {
	if len(h) == 0 {
		return 0
	}
	var sum float64
	for _, b := range h {
		sum += float64(b.Volume)
	}
	return sum / float64(len(h))
}

// HighLow devuelve el máximo High y el mínimo Low de las últimas n barras.
// Con menos de n barras devuelve ok=false (equivale a un rolling(n) sin ventana completa).
func (h PriceHistory) HighLow(n int) (high, low float64, ok bool) {
	if n <= 0 || len(h) < n {
		return 0, 0, false
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range h[len(h)-n:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low, true
}

// SMA devuelve la media simple del cierre de las últimas n barras.
func (h PriceHistory) SMA(n int) (float64, bool) {
	if n <= 0 || len(h) < n {
		return 0, false
	}
	var sum float64
	for _, b := range h[len(h)-n:] {
		sum += b.Close
	}
	return sum / float64(n), true
}

// Closes devuelve la serie de cierres.
func (h PriceHistory) Closes() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.Close
	}
	return out
}

// Round2 redondea a 2 decimales (valores monetarios y porcentajes de display).
// Redondea el valor binario exacto y resuelve empates al par, igual que round(x, 2)
// de Python: 2.675 → 2.67, 8.125 → 8.12.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
