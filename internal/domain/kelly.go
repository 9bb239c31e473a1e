package domain

import "math"

// NaiveKellyFraction calcula la fracción de Kelly escalada por deferencia,
// ignorando el impacto en precio del AMM.
//
// Fórmula:
//
//	outcome  = YES si estimatedProb > marketProb, si no NO
//	fraction = k × |pe - pm| / (1 - pm), acotada a [0, 1]
//
// Con impacto en precio el óptimo real es siempre menor, así que el resultado
// sirve como cota superior para la búsqueda del optimizador.
func NaiveKellyFraction(marketProb, estimatedProb, deference float64) (float64, Outcome) {
	outcome := OutcomeNO
	if estimatedProb > marketProb {
		outcome = OutcomeYES
	}

	fraction := deference * math.Abs(estimatedProb-marketProb) / (1 - marketProb)
	return clamp01(fraction), outcome
}

// NaiveKellyBet devuelve la recomendación naive: fracción × bankroll.
func NaiveKellyBet(marketProb, estimatedProb, deference, bankroll float64) BetRecommendation {
	fraction, outcome := NaiveKellyFraction(marketProb, estimatedProb, deference)
	return BetRecommendation{Amount: fraction * bankroll, Outcome: outcome}
}

// WinProbability devuelve la probabilidad de ganar del lado elegido:
// mezcla de la estimación propia y la del mercado ponderada por deference.
func WinProbability(marketProb, estimatedProb, deference float64, outcome Outcome) float64 {
	blended := deference*estimatedProb + (1-deference)*marketProb
	if outcome == OutcomeNO {
		return 1 - blended
	}
	return blended
}

func clamp01(v float64) float64 {
	// NaN (p.ej. pm = 1 con pe = pm) se trata como "no apostar"
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
