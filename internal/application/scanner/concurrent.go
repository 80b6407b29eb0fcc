package scanner

// concurrent.go: worker pool para el fetch+score por ticker.
//
// Cada ticker es independiente (no comparten estado), así que el fetch se
// paraleliza; el resultado de cada uno se escribe en su slot por índice para que
// la secuencia final sea idéntica a la de una ejecución secuencial.

import (
	"context"
	"log/slog"
	"sync"
)

const defaultFetchWorkers = 4

// scanFunc procesa un ticker y devuelve su resultado.
type scanFunc func(ctx context.Context, ticker string) tickerResult

// scanTickersConcurrent ejecuta fn sobre todos los tickers con un pool de workers.
// Si workers <= 0 usa defaultFetchWorkers.
// Los tickers que no llegan a procesarse por cancelación quedan con slot vacío.
func scanTickersConcurrent(ctx context.Context, tickers []string, workers int, fn scanFunc) []tickerResult {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}

	type work struct {
		idx    int
		ticker string
	}

	workCh := make(chan work, len(tickers))
	results := make([]tickerResult, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if ctx.Err() != nil {
					continue // drenar sin trabajar
				}
				results[w.idx] = fn(ctx, w.ticker)
			}
		}()
	}

	for i, t := range tickers {
		workCh <- work{idx: i, ticker: t}
	}
	close(workCh)
	wg.Wait()

	slog.Debug("concurrent scan complete",
		"tickers", len(tickers),
		"workers", workers,
	)
	return results
}
