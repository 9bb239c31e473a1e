package domain

// payout.go — distribución del pago total de un conjunto de apuestas binarias
// independientes. Se usa para modelar el patrimonio ilíquido como un pago
// aleatorio e integrar la condición marginal del optimizador sobre él.

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// pmfTolerance es la tolerancia por defecto del invariante Σ masa = 1.
const pmfTolerance = 1e-9

// Position es una apuesta binaria independiente: paga Payout con
// probabilidad Probability y 0 en otro caso.
type Position struct {
	Probability float64
	Payout      float64
}

// Validate comprueba que la probabilidad esté en [0,1].
func (p Position) Validate() error {
	if math.IsNaN(p.Probability) || p.Probability < 0 || p.Probability > 1 {
		return fmt.Errorf("probability %v outside [0,1]: %w", p.Probability, ErrInvalidPosition)
	}
	return nil
}

// PMF mapea cada pago posible a su masa de probabilidad.
type PMF map[float64]float64

// Support devuelve los pagos de la PMF ordenados de menor a mayor.
func (p PMF) Support() []float64 {
	keys := make([]float64, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}

// masses devuelve las masas en el orden de Support.
func (p PMF) masses(support []float64) []float64 {
	m := make([]float64, len(support))
	for i, k := range support {
		m[i] = p[k]
	}
	return m
}

// TotalMass devuelve Σ masa.
func (p PMF) TotalMass() float64 {
	return floats.Sum(p.masses(p.Support()))
}

// Validate comprueba el invariante de la PMF: masas en [0,1] que suman 1
// dentro de tolerance. Si tolerance <= 0 usa 1e-9.
func (p PMF) Validate(tolerance float64) error {
	if tolerance <= 0 {
		tolerance = pmfTolerance
	}
	for payout, mass := range p {
		if math.IsNaN(mass) || mass < -tolerance || mass > 1+tolerance {
			return fmt.Errorf("domain.PMF.Validate: mass %v at payout %v outside [0,1]", mass, payout)
		}
	}
	if total := p.TotalMass(); math.Abs(total-1) > tolerance {
		return fmt.Errorf("domain.PMF.Validate: masses sum to %v, want 1", total)
	}
	return nil
}

// ExpectedValue devuelve Σ pago × masa.
func (p PMF) ExpectedValue() float64 {
	support := p.Support()
	return floats.Dot(support, p.masses(support))
}

// Integrate devuelve Σ f(pago) × masa.
func (p PMF) Integrate(f func(float64) float64) float64 {
	return IntegrateOverPMF(p, f)
}

// IntegrateOverPMF devuelve la esperanza de f bajo la PMF: Σ f(pago) × masa.
func IntegrateOverPMF(pmf PMF, f func(float64) float64) float64 {
	support := pmf.Support()
	values := make([]float64, len(support))
	for i, payout := range support {
		values[i] = f(payout)
	}
	return floats.Dot(values, pmf.masses(support))
}

// PayoutMethod selecciona cómo se combina la distribución de varias posiciones.
type PayoutMethod int

const (
	// MethodConvolution convoluciona posición a posición. Coste proporcional
	// al número de pagos combinados distintos.
	MethodConvolution PayoutMethod = iota
	// MethodCartesian enumera las 2^n combinaciones. Exponencial en n.
	MethodCartesian
)

// String implementa fmt.Stringer.
func (m PayoutMethod) String() string {
	switch m {
	case MethodConvolution:
		return "convolution"
	case MethodCartesian:
		return "cartesian"
	default:
		return fmt.Sprintf("PayoutMethod(%d)", int(m))
	}
}

// ComputePayoutDistribution construye la PMF del pago total de las posiciones.
func ComputePayoutDistribution(positions []Position, method PayoutMethod) (PMF, error) {
	for i, pos := range positions {
		if err := pos.Validate(); err != nil {
			return nil, fmt.Errorf("domain.ComputePayoutDistribution: position %d: %w", i, err)
		}
	}
	switch method {
	case MethodConvolution:
		return ConvolutionPMF(positions), nil
	case MethodCartesian:
		return CartesianPMF(positions), nil
	default:
		return nil, fmt.Errorf("domain.ComputePayoutDistribution: method %s: %w", method, ErrNotImplemented)
	}
}

// outcomePoint es una combinación enumerada: pago total y su probabilidad.
type outcomePoint struct {
	payout      float64
	probability float64
}

// enumerateOutcomes recorre las 2^n combinaciones de resultados. Cada posición
// aporta la rama {0, payout} con peso {1-p, p}.
func enumerateOutcomes(positions []Position) []outcomePoint {
	points := make([]outcomePoint, 0, 1<<len(positions))
	for mask := 0; mask < 1<<len(positions); mask++ {
		prob := 1.0
		payout := 0.0
		for i, pos := range positions {
			if mask&(1<<i) != 0 {
				prob *= pos.Probability
				payout += pos.Payout
			} else {
				prob *= 1 - pos.Probability
			}
		}
		points = append(points, outcomePoint{payout: payout, probability: prob})
	}
	return points
}

// CartesianPMF construye la PMF enumerando todo el espacio de resultados y
// sumando las masas de combinaciones con el mismo pago total.
func CartesianPMF(positions []Position) PMF {
	pmf := make(PMF)
	for _, pt := range enumerateOutcomes(positions) {
		pmf[pt.payout] += pt.probability
	}
	return pmf
}

// ConvolutionPMF construye la PMF partiendo de {0: 1} y convolucionando
// con la PMF de dos puntos {0: 1-p, payout: p} de cada posición.
func ConvolutionPMF(positions []Position) PMF {
	pmf := PMF{0: 1}
	for _, pos := range positions {
		step := PMF{0: 1 - pos.Probability}
		step[pos.Payout] += pos.Probability

		next := make(PMF, len(pmf)*2)
		for a, ma := range pmf {
			for b, mb := range step {
				next[a+b] += ma * mb
			}
		}
		pmf = next
	}
	return pmf
}

// CDFPoint es un punto de la función de distribución acumulada.
type CDFPoint struct {
	Payout     float64
	Cumulative float64
}

// CDF es la distribución acumulada ordenada por pago ascendente.
type CDF []CDFPoint

// At devuelve P(pago <= payout).
func (c CDF) At(payout float64) float64 {
	i := sort.Search(len(c), func(i int) bool { return c[i].Payout > payout })
	if i == 0 {
		return 0
	}
	return c[i-1].Cumulative
}

// CumulativeDistribution construye la CDF del pago total. Solo el método
// cartesiano está soportado: ordena las combinaciones por pago y acumula.
func CumulativeDistribution(positions []Position, method PayoutMethod) (CDF, error) {
	if method != MethodCartesian {
		return nil, fmt.Errorf("domain.CumulativeDistribution: method %s: %w", method, ErrNotImplemented)
	}
	for i, pos := range positions {
		if err := pos.Validate(); err != nil {
			return nil, fmt.Errorf("domain.CumulativeDistribution: position %d: %w", i, err)
		}
	}

	points := enumerateOutcomes(positions)
	sort.SliceStable(points, func(i, j int) bool { return points[i].payout < points[j].payout })

	cdf := make(CDF, 0, len(points))
	var cum float64
	for _, pt := range points {
		cum += pt.probability
		// pagos repetidos: se queda el acumulado del último
		if n := len(cdf); n > 0 && cdf[n-1].Payout == pt.payout {
			cdf[n-1].Cumulative = cum
			continue
		}
		cdf = append(cdf, CDFPoint{Payout: pt.payout, Cumulative: cum})
	}
	return cdf, nil
}
