package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSamePMF(t *testing.T, want, got PMF) {
	t.Helper()
	require.Len(t, got, len(want))
	for payout, mass := range want {
		gotMass, ok := got[payout]
		require.True(t, ok, "missing payout %v", payout)
		assert.InDelta(t, mass, gotMass, 1e-12, "payout %v", payout)
	}
}

func TestPayoutDistribution_SinglePosition(t *testing.T) {
	positions := []Position{{Probability: 0.3, Payout: 10}}

	for _, method := range []PayoutMethod{MethodCartesian, MethodConvolution} {
		pmf, err := ComputePayoutDistribution(positions, method)
		require.NoError(t, err)
		assertSamePMF(t, PMF{0: 0.7, 10: 0.3}, pmf)
		assert.InDelta(t, 3.0, pmf.ExpectedValue(), 1e-12)
	}
}

func TestPayoutDistribution_TwoPositions(t *testing.T) {
	positions := []Position{{0.5, 4}, {0.5, 6}}
	want := PMF{0: 0.25, 4: 0.25, 6: 0.25, 10: 0.25}

	cart, err := ComputePayoutDistribution(positions, MethodCartesian)
	require.NoError(t, err)
	assertSamePMF(t, want, cart)
	assert.InDelta(t, 5.0, cart.ExpectedValue(), 1e-12)

	conv, err := ComputePayoutDistribution(positions, MethodConvolution)
	require.NoError(t, err)
	assertSamePMF(t, want, conv)
}

func TestPayoutDistribution_MethodsAgree(t *testing.T) {
	sets := [][]Position{
		nil,
		{{0.1, 3}},
		{{0.2, 1}, {0.7, 1}, {0.5, 2}},
		{{0.9, 12.5}, {0.33, 7}, {0.5, 5.5}, {0.05, 100}},
		{{0, 4}, {1, 6}},
	}
	for _, positions := range sets {
		cart := CartesianPMF(positions)
		conv := ConvolutionPMF(positions)
		assertSamePMF(t, cart, conv)
		require.NoError(t, cart.Validate(0))
		require.NoError(t, conv.Validate(0))
	}
}

func TestPayoutDistribution_EqualPayoutsCombined(t *testing.T) {
	// dos posiciones con el mismo pago → 1 aparece por dos caminos
	pmf := CartesianPMF([]Position{{0.5, 1}, {0.5, 1}})
	assertSamePMF(t, PMF{0: 0.25, 1: 0.5, 2: 0.25}, pmf)
}

func TestPayoutDistribution_InvalidPosition(t *testing.T) {
	_, err := ComputePayoutDistribution([]Position{{1.5, 3}}, MethodCartesian)
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = CumulativeDistribution([]Position{{-0.1, 3}}, MethodCartesian)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestPMF_ValidateDetectsBadMass(t *testing.T) {
	assert.Error(t, PMF{0: 0.5, 1: 0.4}.Validate(1e-6))
	assert.Error(t, PMF{0: -0.5, 1: 1.5}.Validate(1e-6))
	assert.NoError(t, PMF{0: 0.5, 1: 0.5}.Validate(1e-6))
}

func TestCumulativeDistribution_Cartesian(t *testing.T) {
	cdf, err := CumulativeDistribution([]Position{{0.5, 4}, {0.5, 6}}, MethodCartesian)
	require.NoError(t, err)
	require.Len(t, cdf, 4)

	want := []CDFPoint{{0, 0.25}, {4, 0.5}, {6, 0.75}, {10, 1}}
	for i, pt := range want {
		assert.Equal(t, pt.Payout, cdf[i].Payout)
		assert.InDelta(t, pt.Cumulative, cdf[i].Cumulative, 1e-12)
	}

	assert.Equal(t, 0.0, cdf.At(-1))
	assert.InDelta(t, 0.5, cdf.At(5), 1e-12)
	assert.InDelta(t, 1.0, cdf.At(1e6), 1e-12)
}

func TestCumulativeDistribution_MonotoneAndEndsAtOne(t *testing.T) {
	positions := []Position{{0.2, 1}, {0.7, 1}, {0.5, 2}, {0.9, 0.5}}
	cdf, err := CumulativeDistribution(positions, MethodCartesian)
	require.NoError(t, err)
	require.NotEmpty(t, cdf)

	for i := 1; i < len(cdf); i++ {
		assert.Less(t, cdf[i-1].Payout, cdf[i].Payout)
		assert.GreaterOrEqual(t, cdf[i].Cumulative, cdf[i-1].Cumulative)
	}
	assert.InDelta(t, 1.0, cdf[len(cdf)-1].Cumulative, 1e-12)
}

func TestCumulativeDistribution_ConvolutionNotImplemented(t *testing.T) {
	_, err := CumulativeDistribution([]Position{{0.5, 1}}, MethodConvolution)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestIntegrateOverPMF(t *testing.T) {
	pmf := PMF{0: 0.25, 4: 0.25, 6: 0.25, 10: 0.25}

	// E[x²] = (0 + 16 + 36 + 100) / 4 = 38
	got := IntegrateOverPMF(pmf, func(x float64) float64 { return x * x })
	assert.InDelta(t, 38.0, got, 1e-12)

	// f ≡ 1 → masa total
	assert.InDelta(t, 1.0, pmf.Integrate(func(float64) float64 { return 1 }), 1e-12)
}
