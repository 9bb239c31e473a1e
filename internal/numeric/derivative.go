// Package numeric contiene utilidades numéricas genéricas: derivada por
// diferencias centrales y búsqueda de raíces por Newton acotado. Ambas
// funcionan tanto con funciones puras como con funciones cuya evaluación
// es una operación externa (p.ej. una simulación en el AMM).
package numeric

import (
	"context"

	"gonum.org/v1/gonum/diff/fd"
)

const (
	// DefaultStep es el paso h por defecto de la diferencia central.
	DefaultStep = 1e-3
	// AMMStep es el paso para funciones respaldadas por el simulador del AMM:
	// pasos finos son inestables frente al redondeo del simulador.
	AMMStep = 0.1
)

// Func es una función escalar pura.
type Func func(x float64) float64

// EffectFunc es una función escalar cuya evaluación es una operación externa
// que puede fallar o bloquear (una ida y vuelta al simulador por evaluación).
type EffectFunc func(ctx context.Context, x float64) (float64, error)

// Lift convierte una Func pura en EffectFunc.
func Lift(f Func) EffectFunc {
	return func(_ context.Context, x float64) (float64, error) {
		return f(x), nil
	}
}

// Derivative aproxima f'(x) con la diferencia central (f(x+h) - f(x-h)) / 2h.
// Si h <= 0 usa DefaultStep.
func Derivative(f Func, x, h float64) float64 {
	if h <= 0 {
		h = DefaultStep
	}
	return fd.Derivative(f, x, &fd.Settings{
		Formula: fd.Central,
		Step:    h,
	})
}

// DerivativeCtx es Derivative para funciones con efectos. Evalúa f(x+h) y
// f(x-h) en secuencia y propaga el primer error.
func DerivativeCtx(ctx context.Context, f EffectFunc, x, h float64) (float64, error) {
	if h <= 0 {
		h = DefaultStep
	}
	hi, err := f(ctx, x+h)
	if err != nil {
		return 0, err
	}
	lo, err := f(ctx, x-h)
	if err != nil {
		return 0, err
	}
	return (hi - lo) / (2 * h), nil
}
