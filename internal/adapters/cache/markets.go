// Package cache memoiza snapshots de mercados. El optimizador simula decenas
// de apuestas por petición y cada simulación necesita el pool del mercado.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/alejandrodnm/kellybot/internal/ports"
	"golang.org/x/sync/singleflight"
)

// entry es un snapshot cacheado y el instante en que caduca.
type entry struct {
	market  domain.Market
	expires time.Time
}

// Markets implementa ports.MarketProvider con una caché TTL en memoria.
// Peticiones concurrentes del mismo slug comparten un único fetch.
type Markets struct {
	next  ports.MarketProvider
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
}

// NewMarkets envuelve next con una caché de ttl. ttl <= 0 desactiva la
// caducidad: el snapshot se reutiliza hasta Invalidate.
func NewMarkets(next ports.MarketProvider, ttl time.Duration) *Markets {
	return &Markets{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// FetchMarket implementa ports.MarketProvider. Los errores no se cachean.
//
// El fetch compartido no hereda la cancelación de quien lo inició: cada
// llamada deja de esperar cuando se cancela su propio ctx.
func (c *Markets) FetchMarket(ctx context.Context, slug string) (domain.Market, error) {
	if m, ok := c.lookup(slug); ok {
		return m, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(slug, func() (any, error) {
		if m, ok := c.lookup(slug); ok {
			return m, nil
		}
		m, err := c.next.FetchMarket(fetchCtx, slug)
		if err != nil {
			return domain.Market{}, err
		}
		c.store(slug, m)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return domain.Market{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Market{}, res.Err
		}
		return res.Val.(domain.Market), nil
	}
}

// Invalidate elimina el snapshot de slug (p.ej. al empezar un ciclo nuevo).
func (c *Markets) Invalidate(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, slug)
}

// InvalidateAll vacía la caché.
func (c *Markets) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Markets) lookup(slug string) (domain.Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[slug]
	if !ok {
		return domain.Market{}, false
	}
	if c.ttl > 0 && !c.now().Before(e.expires) {
		return domain.Market{}, false
	}
	return e.market, true
}

func (c *Markets) store(slug string, m domain.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slug] = entry{market: m, expires: c.now().Add(c.ttl)}
}
