package domain

import (
	"fmt"
	"time"
)

// Outcome es el lado del mercado binario que se compra.
type Outcome int

const (
	OutcomeYES Outcome = iota
	OutcomeNO
)

// String implementa fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeYES:
		return "YES"
	case OutcomeNO:
		return "NO"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ParseOutcome convierte "YES"/"NO" en un Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "YES", "Yes", "yes":
		return OutcomeYES, nil
	case "NO", "No", "no":
		return OutcomeNO, nil
	}
	return 0, fmt.Errorf("domain.ParseOutcome: unknown outcome %q", s)
}

// BetRecommendation es el resultado de un cálculo de tamaño de apuesta.
// Shares y ProbabilityAfter vienen de la simulación final en el AMM.
type BetRecommendation struct {
	Amount           float64
	Outcome          Outcome
	Shares           float64
	ProbabilityAfter float64
}

// AverageDecimalOdds devuelve el pago medio por unidad apostada (shares / amount).
// Devuelve 0 si la apuesta es nula.
func (b BetRecommendation) AverageDecimalOdds() float64 {
	if b.Amount <= 0 {
		return 0
	}
	return b.Shares / b.Amount
}

// PortfolioRecommendation extiende BetRecommendation con las cotas usadas
// para acotar el óptimo cuando hay patrimonio ilíquido.
type PortfolioRecommendation struct {
	BetRecommendation
	Initial float64 // óptimo ignorando lo ilíquido (cota baja)
	High    float64 // óptimo con lo ilíquido liquidado al EV (cota alta)
}

// SimulatedBet es el resultado de simular una apuesta en el AMM sin ejecutarla.
type SimulatedBet struct {
	Shares           float64
	ProbabilityAfter float64
	HasProbability   bool
}

// Advice es una recomendación evaluada para un mercado concreto del watchlist.
type Advice struct {
	ID             string
	Slug           string
	Question       string
	MarketProb     float64
	EstimatedProb  float64
	Deference      float64
	Balance        float64
	IlliquidEV     float64
	NaiveAmount    float64
	Recommendation PortfolioRecommendation
	EvaluatedAt    time.Time
}
