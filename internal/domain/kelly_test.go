package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaiveKellyFraction_Example(t *testing.T) {
	// 0.5 × (0.6 - 0.4) / (1 - 0.4) = 0.5 × 0.2 / 0.6 = 0.1667
	fraction, outcome := NaiveKellyFraction(0.4, 0.6, 0.5)
	assert.InDelta(t, 0.16667, fraction, 1e-4)
	assert.Equal(t, OutcomeYES, outcome)
}

func TestNaiveKellyBet_Example(t *testing.T) {
	bet := NaiveKellyBet(0.4, 0.6, 0.5, 1000)
	assert.InDelta(t, 166.67, bet.Amount, 0.01)
	assert.Equal(t, OutcomeYES, bet.Outcome)
}

func TestNaiveKellyFraction_NoWhenEstimateBelowMarket(t *testing.T) {
	fraction, outcome := NaiveKellyFraction(0.6, 0.4, 1)
	assert.Equal(t, OutcomeNO, outcome)
	// |0.4 - 0.6| / (1 - 0.6) = 0.5
	assert.InDelta(t, 0.5, fraction, 1e-12)
}

func TestNaiveKellyFraction_EqualProbabilities(t *testing.T) {
	fraction, outcome := NaiveKellyFraction(0.5, 0.5, 1)
	assert.Equal(t, 0.0, fraction)
	assert.Equal(t, OutcomeNO, outcome)
}

func TestNaiveKellyFraction_AlwaysInUnitInterval(t *testing.T) {
	probs := []float64{0, 0.01, 0.1, 0.35, 0.5, 0.65, 0.9, 0.99, 1}
	deferences := []float64{0, 0.25, 0.5, 1}
	for _, pm := range probs {
		for _, pe := range probs {
			for _, k := range deferences {
				fraction, outcome := NaiveKellyFraction(pm, pe, k)
				assert.GreaterOrEqual(t, fraction, 0.0, "pm=%v pe=%v k=%v", pm, pe, k)
				assert.LessOrEqual(t, fraction, 1.0, "pm=%v pe=%v k=%v", pm, pe, k)
				assert.Equal(t, pe > pm, outcome == OutcomeYES, "pm=%v pe=%v", pm, pe)
			}
		}
	}
}

func TestWinProbability(t *testing.T) {
	// 0.5×0.6 + 0.5×0.4 = 0.5
	assert.InDelta(t, 0.5, WinProbability(0.4, 0.6, 0.5, OutcomeYES), 1e-12)
	// k=1 → estimación propia
	assert.InDelta(t, 0.7, WinProbability(0.5, 0.7, 1, OutcomeYES), 1e-12)
	assert.InDelta(t, 0.3, WinProbability(0.5, 0.7, 1, OutcomeNO), 1e-12)
	// k=0 → mercado
	assert.InDelta(t, 0.5, WinProbability(0.5, 0.7, 0, OutcomeYES), 1e-12)
}
