package sizing

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/alejandrodnm/kellybot/internal/numeric"
)

// illiquidWinProbability es la probabilidad de la posición sintética que
// aproxima el patrimonio ilíquido.
const illiquidWinProbability = 0.5

// PortfolioRequest son los inputs del optimizador con balance líquido y
// patrimonio ilíquido separados.
type PortfolioRequest struct {
	Slug          string
	EstimatedProb float64
	Deference     float64
	Balance       float64
	IlliquidEV    float64
}

// OptimalPortfolioBet extiende OptimalBet modelando el patrimonio ilíquido
// como un pago aleatorio.
//
// Pasos:
//  1. Initial: óptimo ignorando lo ilíquido, en [0, naiveKelly].
//  2. Amount: raíz de dEV integrada sobre la PMF ilíquida, en [Initial/2, 2·Initial].
//  3. High: raíz de dEV con lo ilíquido liquidado a su EV, mismo intervalo.
//
// En condiciones normales Initial <= Amount <= High.
func (o *Optimizer) OptimalPortfolioBet(ctx context.Context, req PortfolioRequest) (domain.PortfolioRecommendation, error) {
	marketProb, ok, err := o.startingProbability(ctx, req.Slug)
	if err != nil {
		return domain.PortfolioRecommendation{}, fmt.Errorf("sizing.OptimalPortfolioBet: %w", err)
	}
	if !ok {
		return domain.PortfolioRecommendation{
			BetRecommendation: domain.BetRecommendation{Outcome: domain.OutcomeYES},
		}, nil
	}

	naive := domain.NaiveKellyBet(marketProb, req.EstimatedProb, req.Deference, req.Balance)
	if naive.Amount <= 0 {
		return domain.PortfolioRecommendation{
			BetRecommendation: domain.BetRecommendation{Outcome: naive.Outcome, ProbabilityAfter: marketProb},
		}, nil
	}

	pWin := domain.WinProbability(marketProb, req.EstimatedProb, req.Deference, naive.Outcome)
	odds := o.englishOdds(req.Slug, naive.Outcome)

	relativeIlliquidEV := req.IlliquidEV / req.Balance
	illiquid := domain.CartesianPMF([]domain.Position{{
		Probability: illiquidWinProbability,
		Payout:      relativeIlliquidEV / illiquidWinProbability,
	}})

	initial, err := numeric.FindRoot(ctx,
		o.quadraticResidual(odds, pWin, req.Balance),
		0, naive.Amount,
		o.rootOptions("balance_only", req.Slug),
	)
	if err != nil {
		return domain.PortfolioRecommendation{}, fmt.Errorf("sizing.OptimalPortfolioBet: initial: %w", err)
	}

	integrated := o.marginalEV(odds, pWin, req.Balance, illiquid.Integrate)
	cashedOut := o.marginalEV(odds, pWin, req.Balance, func(g func(float64) float64) float64 {
		return g(relativeIlliquidEV)
	})

	amount, err := numeric.FindRoot(ctx, integrated, 0.5*initial, 2*initial,
		o.rootOptions("integrated", req.Slug))
	if err != nil {
		return domain.PortfolioRecommendation{}, fmt.Errorf("sizing.OptimalPortfolioBet: integrated: %w", err)
	}
	high, err := numeric.FindRoot(ctx, cashedOut, 0.5*initial, 2*initial,
		o.rootOptions("cashed_out", req.Slug))
	if err != nil {
		return domain.PortfolioRecommendation{}, fmt.Errorf("sizing.OptimalPortfolioBet: cashed out: %w", err)
	}

	rec, err := o.finalize(ctx, req.Slug, naive.Outcome, amount, marketProb)
	if err != nil {
		return domain.PortfolioRecommendation{}, fmt.Errorf("sizing.OptimalPortfolioBet: %w", err)
	}
	return domain.PortfolioRecommendation{BetRecommendation: rec, Initial: initial, High: high}, nil
}

// marginalEV devuelve dE[log wealth]/df evaluada en f = x/balance, con el
// integrando paramétrico en el pago ilíquido I (relativo al balance):
//
//	pWin · (e + x·e') / (1 + I + f·e)  -  qWin / (1 + I - f)
//
// expect decide cómo se toma la esperanza sobre I (valor fijo o PMF).
// Los denominadores no se protegen contra cero o negativos.
func (o *Optimizer) marginalEV(
	odds numeric.EffectFunc,
	pWin, balance float64,
	expect func(func(float64) float64) float64,
) numeric.EffectFunc {
	qWin := 1 - pWin
	return func(ctx context.Context, x float64) (float64, error) {
		e, err := odds(ctx, x)
		if err != nil {
			return 0, err
		}
		de, err := numeric.DerivativeCtx(ctx, odds, x, o.cfg.AMMStep)
		if err != nil {
			return 0, err
		}
		f := x / balance
		return expect(func(illiquid float64) float64 {
			return pWin*(e+x*de)/(1+illiquid+f*e) - qWin/(1+illiquid-f)
		}), nil
	}
}
