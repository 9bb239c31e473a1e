package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int64
	err   error
	delay time.Duration
}

func (p *countingProvider) FetchMarket(_ context.Context, slug string) (domain.Market, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return domain.Market{}, p.err
	}
	return domain.Market{Slug: slug, Prob: 0.5, OutcomeType: domain.OutcomeBinary}, nil
}

func TestMarkets_HitWithinTTL(t *testing.T) {
	next := &countingProvider{}
	c := NewMarkets(next, time.Minute)

	for i := 0; i < 5; i++ {
		m, err := c.FetchMarket(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, "a", m.Slug)
	}
	assert.Equal(t, int64(1), next.calls.Load())
}

func TestMarkets_ExpiresAfterTTL(t *testing.T) {
	next := &countingProvider{}
	c := NewMarkets(next, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.FetchMarket(context.Background(), "a")
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = c.FetchMarket(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.calls.Load())

	now = now.Add(2 * time.Second)
	_, err = c.FetchMarket(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.calls.Load())
}

func TestMarkets_ErrorsAreNotCached(t *testing.T) {
	next := &countingProvider{err: errors.New("boom")}
	c := NewMarkets(next, time.Minute)

	_, err := c.FetchMarket(context.Background(), "a")
	assert.Error(t, err)
	_, err = c.FetchMarket(context.Background(), "a")
	assert.Error(t, err)
	assert.Equal(t, int64(2), next.calls.Load())
}

func TestMarkets_Invalidate(t *testing.T) {
	next := &countingProvider{}
	c := NewMarkets(next, 0)

	_, _ = c.FetchMarket(context.Background(), "a")
	_, _ = c.FetchMarket(context.Background(), "b")
	c.Invalidate("a")
	_, _ = c.FetchMarket(context.Background(), "a")
	_, _ = c.FetchMarket(context.Background(), "b")
	assert.Equal(t, int64(3), next.calls.Load())

	c.InvalidateAll()
	_, _ = c.FetchMarket(context.Background(), "b")
	assert.Equal(t, int64(4), next.calls.Load())
}

func TestMarkets_ConcurrentFetchesShareOneCall(t *testing.T) {
	next := &countingProvider{delay: 50 * time.Millisecond}
	c := NewMarkets(next, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchMarket(context.Background(), "a")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), next.calls.Load())
}

// gatedProvider bloquea el fetch hasta release, o hasta que se cancele su ctx.
type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedProvider) FetchMarket(ctx context.Context, slug string) (domain.Market, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return domain.Market{Slug: slug, Prob: 0.5, OutcomeType: domain.OutcomeBinary}, nil
	case <-ctx.Done():
		return domain.Market{}, ctx.Err()
	}
}

func TestMarkets_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	next := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	c := NewMarkets(next, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchMarket(ctx, "a")
		firstErr <- err
	}()
	<-next.started

	type result struct {
		market domain.Market
		err    error
	}
	second := make(chan result, 1)
	go func() {
		m, err := c.FetchMarket(context.Background(), "a")
		second <- result{m, err}
	}()
	time.Sleep(20 * time.Millisecond) // deja que el segundo se una al fetch en curso

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(next.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, "a", res.market.Slug)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}

	// el resultado del fetch compartido queda cacheado
	m, err := c.FetchMarket(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", m.Slug)
}
