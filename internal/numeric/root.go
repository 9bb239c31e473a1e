package numeric

import (
	"context"
	"fmt"
	"math"
)

const (
	DefaultIterations = 10
	DefaultTolerance  = 1e-6
)

// RootOptions configura FindRoot. Los valores cero usan los defaults.
type RootOptions struct {
	Iterations int
	Tolerance  float64
	// Step es el h de la derivada numérica de f.
	Step float64
	// Trace, si no es nil, recibe cada iteración. No altera el resultado.
	Trace func(NewtonStep)
}

// NewtonStep describe una iteración de Newton.
type NewtonStep struct {
	Iteration int
	X         float64
	Fx        float64
	Dfx       float64
	Next      float64
	Clamped   bool
}

func (o RootOptions) withDefaults() RootOptions {
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	return o
}

// FindRoot busca un cero de f en [lower, upper] con Newton acotado.
//
// Empieza en el punto medio; en cada iteración calcula x - f(x)/f'(x) y, si
// cae fuera del intervalo, lo recorta al extremo más cercano (no es bisección).
// Devuelve xNext en cuanto |xNext - x| < tolerance. Si se agotan las
// iteraciones devuelve la última estimación sin error: el resultado es una
// aproximación, no una raíz certificada. Una derivada nula propaga NaN/Inf.
//
// Solo devuelve error si la evaluación de f falla.
func FindRoot(ctx context.Context, f EffectFunc, lower, upper float64, opts RootOptions) (float64, error) {
	opts = opts.withDefaults()

	x := (lower + upper) / 2
	for i := 0; i < opts.Iterations; i++ {
		fx, err := f(ctx, x)
		if err != nil {
			return x, fmt.Errorf("numeric.FindRoot: eval at %v: %w", x, err)
		}
		dfx, err := DerivativeCtx(ctx, f, x, opts.Step)
		if err != nil {
			return x, fmt.Errorf("numeric.FindRoot: derivative at %v: %w", x, err)
		}

		next := x - fx/dfx
		clamped := false
		if next < lower {
			next, clamped = lower, true
		} else if next > upper {
			next, clamped = upper, true
		}

		if opts.Trace != nil {
			opts.Trace(NewtonStep{Iteration: i, X: x, Fx: fx, Dfx: dfx, Next: next, Clamped: clamped})
		}

		// Un paso recortado al mismo extremo también cuenta como convergencia.
		if math.Abs(next-x) < opts.Tolerance {
			return next, nil
		}
		x = next
	}
	return x, nil
}

// FindRootFunc es FindRoot para funciones puras.
func FindRootFunc(f Func, lower, upper float64, opts RootOptions) float64 {
	// Lift nunca devuelve error
	x, _ := FindRoot(context.Background(), Lift(f), lower, upper, opts)
	return x
}
