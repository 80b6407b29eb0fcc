package domain

import "errors"

var (
	// ErrDataUnavailable indica que el historial o la cadena de un ticker no se pudo
	// obtener, o llegó vacía/corta. Nunca es fatal: el ticker se salta.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedContract indica un contrato con campos numéricos ausentes o inválidos.
	// Solo se salta ese contrato.
	ErrMalformedContract = errors.New("malformed contract")
)

// SkipReason describe por qué un ticker o contrato no produjo resultado.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipDataUnavailable   SkipReason = "data_unavailable"
	SkipTooShort          SkipReason = "too_short"
	SkipNotQualified      SkipReason = "not_qualified"
	SkipNoExpirations     SkipReason = "no_expirations"
	SkipMalformedContract SkipReason = "malformed_contract"
	SkipTooExpensive      SkipReason = "too_expensive"
)

// TickerOutcome es el resultado por ticker de una pasada batch.
// Permite distinguir "filtrado" de "error de datos" en el reporte final.
type TickerOutcome struct {
	Ticker string
	Reason SkipReason
	Err    error
}

// Skipped devuelve true si el ticker no aportó datos a la pasada.
func (o TickerOutcome) Skipped() bool {
	return o.Reason != SkipNone
}

// CountSkips agrupa los outcomes saltados por motivo.
func CountSkips(outcomes []TickerOutcome) map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, o := range outcomes {
		if o.Skipped() {
			counts[o.Reason]++
		}
	}
	return counts
}
