package domain

import "time"

// Selection son las tablas top de CALL y PUT tras el ranking.
type Selection struct {
	Calls []ScoredOption
	Puts  []ScoredOption
	// Empty indica que no hubo ningún contrato puntuado (resultado informativo, no error).
	Empty bool
}

// ScanResult es todo lo que produce una pasada de escaneo sobre el universo.
type ScanResult struct {
	RunID            string
	ScannedAt        time.Time
	UniverseSize     int
	Selection        Selection
	Plan             AllocationPlan
	Outcomes         []TickerOutcome
	ContractsScored  int
	ContractsSkipped map[SkipReason]int
}

// TickersSkipped devuelve cuántos tickers no aportaron contratos.
func (r ScanResult) TickersSkipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped() {
			n++
		}
	}
	return n
}

// TickerReport es el informe manual de un único ticker.
type TickerReport struct {
	Ticker     string
	Price      float64
	TrendScore int
	Expiration time.Time
	HasOptions bool
	TopCalls   []OptionContractRaw
	TopPuts    []OptionContractRaw
}
