package numeric

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot_Linear(t *testing.T) {
	var steps []NewtonStep
	x, err := FindRoot(context.Background(), Lift(func(x float64) float64 { return x - 3 }), 0, 10, RootOptions{
		Trace: func(s NewtonStep) { steps = append(steps, s) },
	})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, x, 1e-6)
	assert.Less(t, len(steps), DefaultIterations)
}

func TestFindRoot_ClampsToBounds(t *testing.T) {
	// x + 100 no tiene raíz en [0,10]: el paso de Newton sale por abajo
	x := FindRootFunc(func(x float64) float64 { return x + 100 }, 0, 10, RootOptions{})
	assert.GreaterOrEqual(t, x, 0.0)
	assert.LessOrEqual(t, x, 10.0)
	// convergencia en el extremo: el paso recortado repite el mismo valor
	assert.Equal(t, 0.0, x)

	x = FindRootFunc(func(x float64) float64 { return x - 100 }, 0, 10, RootOptions{})
	assert.Equal(t, 10.0, x)
}

func TestFindRoot_Nonlinear(t *testing.T) {
	x := FindRootFunc(func(x float64) float64 { return x*x - 2 }, 0, 3, RootOptions{})
	assert.InDelta(t, math.Sqrt2, x, 1e-6)
}

func TestFindRoot_SoftFailureReturnsLastEstimate(t *testing.T) {
	// una sola iteración desde 1.5 no alcanza √2 con tolerancia 1e-12
	var steps []NewtonStep
	x := FindRootFunc(func(x float64) float64 { return x*x - 2 }, 0, 3, RootOptions{
		Iterations: 1,
		Tolerance:  1e-12,
		Trace:      func(s NewtonStep) { steps = append(steps, s) },
	})
	require.Len(t, steps, 1)
	assert.Equal(t, steps[0].Next, x)
	// 1.5 - (0.25 / 3) = 1.41667
	assert.InDelta(t, 1.41667, x, 1e-4)
}

func TestFindRoot_ZeroDerivativePropagatesNaN(t *testing.T) {
	x := FindRootFunc(func(float64) float64 { return 0 }, 0, 10, RootOptions{Iterations: 3})
	// 0/0 = NaN y NaN nunca converge ni se recorta
	assert.True(t, math.IsNaN(x))
}

func TestFindRoot_PropagatesEvaluationError(t *testing.T) {
	boom := errors.New("simulator down")
	_, err := FindRoot(context.Background(), func(context.Context, float64) (float64, error) {
		return 0, boom
	}, 0, 1, RootOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestFindRoot_CountsEvaluations(t *testing.T) {
	calls := 0
	f := func(_ context.Context, x float64) (float64, error) {
		calls++
		return math.Cbrt(x - 3), nil
	}
	iterations := 0
	_, err := FindRoot(context.Background(), f, 0, 10, RootOptions{
		Iterations: 4,
		Trace:      func(NewtonStep) { iterations++ },
	})
	require.NoError(t, err)
	// Newton sobre la raíz cúbica oscila entre los extremos y agota las iteraciones
	assert.Equal(t, 4, iterations)
	// f(x) + 2 evaluaciones de la derivada por iteración
	assert.Equal(t, 3*iterations, calls)
}
