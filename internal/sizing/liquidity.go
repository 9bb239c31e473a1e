package sizing

import (
	"context"
	"fmt"
	"math"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/alejandrodnm/kellybot/internal/numeric"
)

// BetRequest son los inputs del optimizador con un único bankroll.
type BetRequest struct {
	Slug          string
	EstimatedProb float64
	Deference     float64
	Bankroll      float64
}

// OptimalBet devuelve la apuesta que maximiza E[log wealth] teniendo en
// cuenta que apostar más mueve el precio del AMM en contra.
//
// Busca el punto fijo de la actualización cuadrática (ver nextFraction)
// dentro de [0, naiveKelly]. Si la probabilidad inicial del mercado no está
// disponible devuelve una recomendación nula sobre YES, sin error.
func (o *Optimizer) OptimalBet(ctx context.Context, req BetRequest) (domain.BetRecommendation, error) {
	marketProb, ok, err := o.startingProbability(ctx, req.Slug)
	if err != nil {
		return domain.BetRecommendation{}, fmt.Errorf("sizing.OptimalBet: %w", err)
	}
	if !ok {
		return domain.BetRecommendation{Outcome: domain.OutcomeYES}, nil
	}

	naive := domain.NaiveKellyBet(marketProb, req.EstimatedProb, req.Deference, req.Bankroll)
	if naive.Amount <= 0 {
		return domain.BetRecommendation{Outcome: naive.Outcome, ProbabilityAfter: marketProb}, nil
	}

	pWin := domain.WinProbability(marketProb, req.EstimatedProb, req.Deference, naive.Outcome)
	odds := o.englishOdds(req.Slug, naive.Outcome)

	amount, err := numeric.FindRoot(ctx,
		o.quadraticResidual(odds, pWin, req.Bankroll),
		0, naive.Amount,
		o.rootOptions("liquidity", req.Slug),
	)
	if err != nil {
		return domain.BetRecommendation{}, fmt.Errorf("sizing.OptimalBet: %w", err)
	}

	rec, err := o.finalize(ctx, req.Slug, naive.Outcome, amount, marketProb)
	if err != nil {
		return rec, fmt.Errorf("sizing.OptimalBet: %w", err)
	}
	return rec, nil
}

// quadraticResidual devuelve x ↦ x_next - x, donde x_next = f·bankroll y f
// resuelve la condición de primer orden linealizada alrededor de x.
func (o *Optimizer) quadraticResidual(odds numeric.EffectFunc, pWin, bankroll float64) numeric.EffectFunc {
	return func(ctx context.Context, x float64) (float64, error) {
		e, err := odds(ctx, x)
		if err != nil {
			return 0, err
		}
		de, err := numeric.DerivativeCtx(ctx, odds, x, o.cfg.AMMStep)
		if err != nil {
			return 0, err
		}
		f := nextFraction(pWin*bankroll*de, e, pWin)
		return f*bankroll - x, nil
	}
}

// nextFraction resuelve A·f² + B·f + C = 0 con
//
//	A = pWin · bankroll · e'(x)   (recibido ya calculado)
//	B = e(x) - A
//	C = -(pWin · e(x) - qWin)
//
// y devuelve la raíz positiva (-B + √(B²-4AC)) / 2A, o -C/B si A = 0.
// Se evalúa como 2C / (-B - √(B²-4AC)), que es la misma raíz sin cancelación
// cuando A es casi nulo. Un discriminante negativo propaga NaN.
func nextFraction(a, e, pWin float64) float64 {
	qWin := 1 - pWin
	b := e - a
	c := -(pWin*e - qWin)
	if a == 0 {
		return -c / b
	}
	return 2 * c / (-b - math.Sqrt(b*b-4*a*c))
}
