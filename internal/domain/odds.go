package domain

import "fmt"

// OddsFormat es la representación de una cuota.
type OddsFormat int

const (
	// DecimalOdds: pago total por unidad apostada, incluida la apuesta.
	DecimalOdds OddsFormat = iota
	// EnglishOdds: pago por unidad apostada sin incluir la apuesta (decimal - 1).
	EnglishOdds
	// ImpliedProbability: 1 / decimal.
	ImpliedProbability
)

// String implementa fmt.Stringer.
func (f OddsFormat) String() string {
	switch f {
	case DecimalOdds:
		return "decimal"
	case EnglishOdds:
		return "english"
	case ImpliedProbability:
		return "implied_probability"
	default:
		return fmt.Sprintf("OddsFormat(%d)", int(f))
	}
}

// ConvertOdds convierte value de la representación from a la representación to.
// Normaliza primero a cuota decimal y después proyecta al formato destino.
// Una probabilidad implícita de 0 produce +Inf (no es un error).
func ConvertOdds(from, to OddsFormat, value float64) (float64, error) {
	if !from.valid() || !to.valid() {
		return 0, fmt.Errorf("domain.ConvertOdds: %s -> %s: %w", from, to, ErrInvalidRepresentation)
	}
	if from == to {
		return value, nil
	}

	var decimal float64
	switch from {
	case DecimalOdds:
		decimal = value
	case EnglishOdds:
		decimal = value + 1
	case ImpliedProbability:
		decimal = 1 / value
	}

	switch to {
	case EnglishOdds:
		return decimal - 1, nil
	case ImpliedProbability:
		return 1 / decimal, nil
	default:
		return decimal, nil
	}
}

func (f OddsFormat) valid() bool {
	return f >= DecimalOdds && f <= ImpliedProbability
}
