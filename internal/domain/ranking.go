package domain

import "sort"

// SortByScore devuelve una copia ordenada por score descendente.
// El orden es estable: a igualdad de score se conserva el orden de llegada,
// que es lo que hace reproducibles el ranking y la asignación de capital.
func SortByScore(opts []ScoredOption) []ScoredOption {
	sorted := make([]ScoredOption, len(opts))
	copy(sorted, opts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}
