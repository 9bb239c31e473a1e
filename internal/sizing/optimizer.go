// Package sizing calcula el tamaño óptimo de una apuesta binaria maximizando
// el log-wealth esperado, teniendo en cuenta el impacto en precio del AMM.
package sizing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/alejandrodnm/kellybot/internal/numeric"
	"github.com/alejandrodnm/kellybot/internal/ports"
)

// minSimAmount es la apuesta mínima que se simula. Por debajo las odds
// (shares/amount - 1) se aproximan por su límite en 0.
const minSimAmount = 1e-6

// Config controla el root-finding del optimizador.
type Config struct {
	Iterations int
	Tolerance  float64
	// AMMStep es el h de las derivadas sobre funciones respaldadas por el AMM.
	AMMStep float64
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Iterations: numeric.DefaultIterations,
		Tolerance:  numeric.DefaultTolerance,
		AMMStep:    numeric.AMMStep,
	}
}

// Optimizer calcula apuestas óptimas contra un mercado con AMM.
// No guarda estado entre peticiones: es seguro usarlo concurrentemente.
type Optimizer struct {
	cfg       Config
	markets   ports.MarketProvider
	simulator ports.BetSimulator
}

// NewOptimizer crea un Optimizer con las dependencias inyectadas.
func NewOptimizer(cfg Config, markets ports.MarketProvider, simulator ports.BetSimulator) *Optimizer {
	def := DefaultConfig()
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.AMMStep <= 0 {
		cfg.AMMStep = def.AMMStep
	}
	return &Optimizer{cfg: cfg, markets: markets, simulator: simulator}
}

// startingProbability obtiene la probabilidad actual del mercado.
// ok=false (sin error) si el mercado no está disponible o no tiene probabilidad.
func (o *Optimizer) startingProbability(ctx context.Context, slug string) (float64, bool, error) {
	market, err := o.markets.FetchMarket(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrMarketUnavailable) {
			slog.Info("market unavailable, recommending no bet", "slug", slug, "err", err)
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sizing: fetch market %q: %w", slug, err)
	}
	prob, ok := market.Probability()
	if !ok {
		slog.Info("market has no probability, recommending no bet", "slug", slug)
	}
	return prob, ok, nil
}

// englishOdds devuelve e(x): el pago por unidad apostada, sin incluir la
// apuesta, de una apuesta de x sobre outcome. Cada evaluación es una
// simulación en el AMM.
func (o *Optimizer) englishOdds(slug string, outcome domain.Outcome) numeric.EffectFunc {
	return func(ctx context.Context, x float64) (float64, error) {
		if math.Abs(x) < minSimAmount {
			x = minSimAmount
		}
		bet, err := o.simulator.SimulateBet(ctx, outcome, x, slug)
		if err != nil {
			return 0, fmt.Errorf("simulate %s %.4f: %w", outcome, x, err)
		}
		return bet.Shares/x - 1, nil
	}
}

// rootOptions devuelve las opciones del root-finder con trazas a slog.Debug.
func (o *Optimizer) rootOptions(stage, slug string) numeric.RootOptions {
	return numeric.RootOptions{
		Iterations: o.cfg.Iterations,
		Tolerance:  o.cfg.Tolerance,
		Step:       o.cfg.AMMStep,
		Trace: func(s numeric.NewtonStep) {
			slog.Debug("newton step",
				"stage", stage,
				"slug", slug,
				"iter", s.Iteration,
				"x", s.X,
				"fx", s.Fx,
				"dfx", s.Dfx,
				"next", s.Next,
				"clamped", s.Clamped,
			)
		},
	}
}

// finalize simula la apuesta elegida para reportar shares y probabilidad final.
// Un importe no finito (derivada nula, discriminante negativo) se reporta
// como apuesta nula.
func (o *Optimizer) finalize(ctx context.Context, slug string, outcome domain.Outcome, amount, marketProb float64) (domain.BetRecommendation, error) {
	rec := domain.BetRecommendation{Amount: amount, Outcome: outcome, ProbabilityAfter: marketProb}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		slog.Warn("optimizer produced a non-finite bet", "slug", slug, "amount", amount)
		rec.Amount = 0
		return rec, nil
	}
	if amount <= 0 {
		return rec, nil
	}

	bet, err := o.simulator.SimulateBet(ctx, outcome, amount, slug)
	if err != nil {
		return rec, fmt.Errorf("sizing: final simulation: %w", err)
	}
	rec.Shares = bet.Shares
	rec.ProbabilityAfter = 0
	if bet.HasProbability {
		rec.ProbabilityAfter = bet.ProbabilityAfter
	}
	return rec, nil
}
