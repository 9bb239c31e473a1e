package ports

import (
	"context"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

// BetSimulator simula una apuesta en el AMM sin ejecutarla.
type BetSimulator interface {
	// SimulateBet devuelve las shares que recibiría una apuesta de amount
	// sobre outcome y la probabilidad del mercado resultante.
	SimulateBet(ctx context.Context, outcome domain.Outcome, amount float64, slug string) (domain.SimulatedBet, error)
}
