// Package amm simula apuestas sobre un market maker de producto constante
// ponderado (CPMM) a partir del snapshot del pool, sin ejecutar nada.
package amm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/alejandrodnm/kellybot/internal/ports"
)

// ErrInvalidPool se devuelve si el pool no admite la operación.
var ErrInvalidPool = errors.New("invalid cpmm pool")

// Purchase calcula las shares que recibe una compra de amount sobre outcome
// y el pool resultante. Invariante: k = YES^p · NO^(1-p).
//
// Comprar YES:
//
//	NO'  = NO + amount
//	YES' = (k / NO'^(1-p))^(1/p)
//	shares = YES + amount - YES'
//
// Comprar NO es simétrico. Un amount negativo recorre la misma curva en
// sentido contrario (lo usan las diferencias centrales cerca de 0).
func Purchase(pool domain.Pool, p float64, outcome domain.Outcome, amount float64) (float64, domain.Pool, error) {
	if pool.YES <= 0 || pool.NO <= 0 || p <= 0 || p >= 1 {
		return 0, pool, fmt.Errorf("amm.Purchase: pool %+v p=%v: %w", pool, p, ErrInvalidPool)
	}
	k := math.Pow(pool.YES, p) * math.Pow(pool.NO, 1-p)

	var next domain.Pool
	var shares float64
	switch outcome {
	case domain.OutcomeYES:
		next.NO = pool.NO + amount
		if next.NO <= 0 {
			return 0, pool, fmt.Errorf("amm.Purchase: amount %v drains NO pool: %w", amount, ErrInvalidPool)
		}
		next.YES = math.Pow(k/math.Pow(next.NO, 1-p), 1/p)
		shares = pool.YES + amount - next.YES
	case domain.OutcomeNO:
		next.YES = pool.YES + amount
		if next.YES <= 0 {
			return 0, pool, fmt.Errorf("amm.Purchase: amount %v drains YES pool: %w", amount, ErrInvalidPool)
		}
		next.NO = math.Pow(k/math.Pow(next.YES, p), 1/(1-p))
		shares = pool.NO + amount - next.NO
	default:
		return 0, pool, fmt.Errorf("amm.Purchase: unknown outcome %s", outcome)
	}
	return shares, next, nil
}

// Simulator implementa ports.BetSimulator sobre los pools que devuelve un
// MarketProvider. Conviene envolver el provider con una caché: el
// optimizador simula decenas de apuestas por petición.
type Simulator struct {
	markets ports.MarketProvider
}

// NewSimulator crea un Simulator.
func NewSimulator(markets ports.MarketProvider) *Simulator {
	return &Simulator{markets: markets}
}

// SimulateBet implementa ports.BetSimulator.
func (s *Simulator) SimulateBet(ctx context.Context, outcome domain.Outcome, amount float64, slug string) (domain.SimulatedBet, error) {
	market, err := s.markets.FetchMarket(ctx, slug)
	if err != nil {
		return domain.SimulatedBet{}, fmt.Errorf("amm.SimulateBet: %w", err)
	}
	if !market.IsBinary() || !market.HasPool() {
		return domain.SimulatedBet{}, fmt.Errorf("amm.SimulateBet: market %q has no binary cpmm pool: %w", slug, ErrInvalidPool)
	}

	shares, next, err := Purchase(market.Pool, market.P, outcome, amount)
	if err != nil {
		return domain.SimulatedBet{}, fmt.Errorf("amm.SimulateBet: %q: %w", slug, err)
	}
	return domain.SimulatedBet{
		Shares:           shares,
		ProbabilityAfter: domain.PoolProbability(next, market.P),
		HasProbability:   true,
	}, nil
}
