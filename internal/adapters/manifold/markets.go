package manifold

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

const slugPath = "/v0/slug/"

// FetchMarket implementa ports.MarketProvider.
// Cualquier fallo que no sea del contexto se reporta como
// domain.ErrMarketUnavailable.
func (c *Client) FetchMarket(ctx context.Context, slug string) (domain.Market, error) {
	if slug == "" {
		return domain.Market{}, fmt.Errorf("manifold.FetchMarket: empty slug: %w", domain.ErrMarketUnavailable)
	}

	var resp apiMarket
	if err := c.get(ctx, c.base+slugPath+url.PathEscape(slug), &resp); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Market{}, fmt.Errorf("manifold.FetchMarket: %q: %w", slug, err)
		}
		if isNotFound(err) {
			slog.Debug("market not found", "slug", slug)
		}
		return domain.Market{}, fmt.Errorf("manifold.FetchMarket: %q: %v: %w", slug, err, domain.ErrMarketUnavailable)
	}

	market := mapMarket(resp)
	market.FetchedAt = time.Now().UTC()
	return market, nil
}

// mapMarket convierte el payload de la API en un domain.Market.
func mapMarket(m apiMarket) domain.Market {
	market := domain.Market{
		ID:          m.ID,
		Slug:        m.Slug,
		Question:    m.Question,
		OutcomeType: m.OutcomeType,
		Mechanism:   m.Mechanism,
		Pool:        domain.Pool{YES: m.Pool.YES, NO: m.Pool.NO},
		P:           m.P,
		Resolved:    m.IsResolved,
	}
	if m.Probability != nil {
		market.Prob = *m.Probability
	}
	if m.CloseTime > 0 {
		market.CloseTime = time.UnixMilli(m.CloseTime).UTC()
	}
	return market
}
