package scanner

import "github.com/alejandrodnm/optsniper/internal/domain"

// SelectTop filtra por score > minScore, ordena descendente (estable) y se queda
// con los primeros perType de cada tipo.
//
// Empty solo se marca cuando no llegó ningún contrato puntuado; si llegaron pero
// ninguno supera el umbral, las tablas quedan vacías con Empty=false.
func SelectTop(scored []domain.ScoredOption, minScore, perType int) domain.Selection {
	if len(scored) == 0 {
		return domain.Selection{Empty: true}
	}

	passing := make([]domain.ScoredOption, 0, len(scored))
	for _, o := range scored {
		if o.Score > minScore {
			passing = append(passing, o)
		}
	}

	var sel domain.Selection
	for _, o := range domain.SortByScore(passing) {
		switch o.Type {
		case domain.Call:
			if len(sel.Calls) < perType {
				sel.Calls = append(sel.Calls, o)
			}
		case domain.Put:
			if len(sel.Puts) < perType {
				sel.Puts = append(sel.Puts, o)
			}
		}
	}
	return sel
}
