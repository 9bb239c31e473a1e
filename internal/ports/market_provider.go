package ports

import (
	"context"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

// MarketProvider obtiene snapshots de mercados binarios.
type MarketProvider interface {
	// FetchMarket devuelve el snapshot del mercado identificado por slug.
	// Devuelve un error que envuelve domain.ErrMarketUnavailable si el
	// mercado no existe o no pudo obtenerse.
	FetchMarket(ctx context.Context, slug string) (domain.Market, error)
}
