// Package advisor evalúa periódicamente un watchlist de mercados y produce
// recomendaciones de tamaño de apuesta con el optimizador de Kelly.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/alejandrodnm/kellybot/internal/ports"
	"github.com/alejandrodnm/kellybot/internal/sizing"
	"github.com/google/uuid"
)

// Entry es un mercado del watchlist junto con nuestra estimación de YES.
type Entry struct {
	Slug     string
	Estimate float64
}

// Config contiene la configuración del advisor.
type Config struct {
	Interval   time.Duration
	Workers    int // goroutines para evaluación paralela (0 = NumCPU*2)
	Deference  float64
	Balance    float64
	IlliquidEV float64
	Filter     FilterConfig
	// RefreshEachCycle invalida la cache de mercados al empezar cada ciclo.
	RefreshEachCycle bool
	DryRun           bool
}

// DefaultConfig devuelve una configuración razonable para un bankroll pequeño.
func DefaultConfig() Config {
	return Config{
		Interval:         5 * time.Minute,
		Deference:        0.5,
		Balance:          1000,
		Filter:           DefaultFilterConfig(),
		RefreshEachCycle: true,
	}
}

// Sizer calcula el tamaño óptimo de apuesta de un mercado.
// *sizing.Optimizer lo implementa.
type Sizer interface {
	OptimalBet(ctx context.Context, req sizing.BetRequest) (domain.BetRecommendation, error)
	OptimalPortfolioBet(ctx context.Context, req sizing.PortfolioRequest) (domain.PortfolioRecommendation, error)
}

// invalidator lo implementan las caches de mercados (cache.Markets).
type invalidator interface {
	InvalidateAll()
}

// Advisor es el orquestador del loop de evaluación.
type Advisor struct {
	cfg       Config
	watchlist []Entry
	markets   ports.MarketProvider
	sizer     Sizer
	storage   ports.Storage
	notifier  ports.Notifier
	filter    *Filter
	now       func() time.Time
}

// New crea un Advisor con todas las dependencias inyectadas.
// storage puede ser nil (dry-run).
func New(
	cfg Config,
	watchlist []Entry,
	markets ports.MarketProvider,
	sizer Sizer,
	storage ports.Storage,
	notifier ports.Notifier,
) *Advisor {
	return &Advisor{
		cfg:       cfg,
		watchlist: watchlist,
		markets:   markets,
		sizer:     sizer,
		storage:   storage,
		notifier:  notifier,
		filter:    NewFilter(cfg.Filter),
		now:       time.Now,
	}
}

// Run ejecuta el loop de evaluación hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (a *Advisor) Run(ctx context.Context) error {
	slog.Info("advisor starting",
		"interval", a.cfg.Interval,
		"markets", len(a.watchlist),
		"dry_run", a.cfg.DryRun,
		"workers", a.cfg.Workers,
	)

	if err := a.runCycle(ctx); err != nil {
		slog.Error("advisor cycle failed", "err", err)
		if a.cfg.DryRun {
			return err
		}
	}

	if a.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("advisor stopped")
			return nil
		case <-ticker.C:
			if err := a.runCycle(ctx); err != nil {
				slog.Error("advisor cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo de evaluación, notifica y persiste.
func (a *Advisor) RunOnce(ctx context.Context) ([]domain.Advice, error) {
	advice, err := a.cycle(ctx)
	if err != nil {
		return nil, err
	}
	a.publish(ctx, advice)
	return advice, nil
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (a *Advisor) runCycle(ctx context.Context) error {
	start := time.Now()

	advice, err := a.cycle(ctx)
	if err != nil {
		return err
	}
	a.publish(ctx, advice)

	withBet := 0
	for _, adv := range advice {
		if adv.Recommendation.Amount > 0 {
			withBet++
		}
	}
	slog.Info("advisor cycle complete",
		"evaluated", len(advice),
		"with_bet", withBet,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func (a *Advisor) publish(ctx context.Context, advice []domain.Advice) {
	if err := a.notifier.Notify(ctx, advice); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if a.storage != nil {
		if err := a.storage.SaveAdvice(ctx, advice); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}
}

// cycle hace refresh → concurrent evaluate → filter → rank.
func (a *Advisor) cycle(ctx context.Context) ([]domain.Advice, error) {
	if len(a.watchlist) == 0 {
		return nil, fmt.Errorf("advisor.cycle: empty watchlist")
	}

	if a.cfg.RefreshEachCycle {
		if inv, ok := a.markets.(invalidator); ok {
			inv.InvalidateAll()
		}
	}

	advice := evaluateConcurrent(ctx, a, a.watchlist, a.cfg.Workers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("advisor.cycle: %w", err)
	}

	return rankByAmount(a.filter.Apply(advice)), nil
}

// Evaluate calcula la recomendación para una entrada del watchlist.
// Devuelve domain.ErrMarketUnavailable (envuelto) si el mercado no se puede
// evaluar: no existe, está resuelto o no es binario.
func (a *Advisor) Evaluate(ctx context.Context, entry Entry) (domain.Advice, error) {
	if entry.Estimate < 0 || entry.Estimate > 1 {
		return domain.Advice{}, fmt.Errorf("advisor.Evaluate: %s: estimate %.4f outside [0,1]", entry.Slug, entry.Estimate)
	}

	market, err := a.markets.FetchMarket(ctx, entry.Slug)
	if err != nil {
		return domain.Advice{}, fmt.Errorf("advisor.Evaluate: %w", err)
	}
	if reason, ok := a.filter.Admits(market, a.now()); !ok {
		return domain.Advice{}, fmt.Errorf("advisor.Evaluate: %s: %s: %w", entry.Slug, reason, domain.ErrMarketUnavailable)
	}
	prob, ok := market.Probability()
	if !ok {
		return domain.Advice{}, fmt.Errorf("advisor.Evaluate: %s: no probability: %w", entry.Slug, domain.ErrMarketUnavailable)
	}

	naive := domain.NaiveKellyBet(prob, entry.Estimate, a.cfg.Deference, a.cfg.Balance)

	var rec domain.PortfolioRecommendation
	if a.cfg.IlliquidEV > 0 {
		rec, err = a.sizer.OptimalPortfolioBet(ctx, sizing.PortfolioRequest{
			Slug:          entry.Slug,
			EstimatedProb: entry.Estimate,
			Deference:     a.cfg.Deference,
			Balance:       a.cfg.Balance,
			IlliquidEV:    a.cfg.IlliquidEV,
		})
	} else {
		rec.BetRecommendation, err = a.sizer.OptimalBet(ctx, sizing.BetRequest{
			Slug:          entry.Slug,
			EstimatedProb: entry.Estimate,
			Deference:     a.cfg.Deference,
			Bankroll:      a.cfg.Balance,
		})
	}
	if err != nil {
		return domain.Advice{}, fmt.Errorf("advisor.Evaluate: %s: %w", entry.Slug, err)
	}

	return domain.Advice{
		ID:             uuid.NewString(),
		Slug:           entry.Slug,
		Question:       market.Question,
		MarketProb:     prob,
		EstimatedProb:  entry.Estimate,
		Deference:      a.cfg.Deference,
		Balance:        a.cfg.Balance,
		IlliquidEV:     a.cfg.IlliquidEV,
		NaiveAmount:    naive.Amount,
		Recommendation: rec,
		EvaluatedAt:    a.now().UTC(),
	}, nil
}

// rankByAmount ordena por importe recomendado descendente; empates por slug.
func rankByAmount(advice []domain.Advice) []domain.Advice {
	sort.SliceStable(advice, func(i, j int) bool {
		ai, aj := advice[i].Recommendation.Amount, advice[j].Recommendation.Amount
		if ai != aj {
			return ai > aj
		}
		return advice[i].Slug < advice[j].Slug
	})
	return advice
}

// isUnavailable distingue mercados no evaluables de fallos reales.
func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrMarketUnavailable)
}
