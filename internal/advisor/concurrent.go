package advisor

// concurrent.go — worker pool para evaluar el watchlist en paralelo.
//
// Cada evaluación hace decenas de simulaciones contra el AMM; las entradas son
// independientes y el optimizador no comparte estado entre llamadas.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

// evaluateConcurrent evalúa todas las entradas usando un worker pool.
// Las entradas que fallan se registran y se descartan.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func evaluateConcurrent(
	ctx context.Context,
	a *Advisor,
	entries []Entry,
	workers int,
) []domain.Advice {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	workCh := make(chan Entry, len(entries))
	resultCh := make(chan domain.Advice, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range workCh {
				if ctx.Err() != nil {
					continue
				}
				adv, err := a.Evaluate(ctx, entry)
				if err != nil {
					if isUnavailable(err) {
						slog.Info("market skipped", "slug", entry.Slug, "err", err)
					} else {
						slog.Warn("evaluate failed", "slug", entry.Slug, "err", err)
					}
					continue
				}
				resultCh <- adv
			}
		}()
	}

	for _, entry := range entries {
		workCh <- entry
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	advice := make([]domain.Advice, 0, len(entries))
	for adv := range resultCh {
		advice = append(advice, adv)
	}

	slog.Debug("concurrent evaluation complete",
		"entries", len(entries),
		"evaluated", len(advice),
		"workers", workers,
	)

	return advice
}
