package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"saas-billing-be/internal/pkg/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) RetrievePrice(ctx context.Context, priceID string) (*gateway.Price, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Price{ID: priceID, UnitAmount: 1900, Currency: "usd"}, nil
}

func TestPriceCatalogServesRepeatLookupsFromCache(t *testing.T) {
	f := &countingFetcher{}
	c := NewPriceCatalog(f, time.Minute)

	for i := 0; i < 3; i++ {
		p, err := c.RetrievePrice(context.Background(), "price_basic")
		require.NoError(t, err)
		assert.Equal(t, int64(1900), p.UnitAmount)
	}
	assert.Equal(t, 1, f.calls)
}

func TestPriceCatalogWithoutTTLAlwaysFetches(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		f := &countingFetcher{}
		c := NewPriceCatalog(f, ttl)

		for i := 0; i < 3; i++ {
			_, err := c.RetrievePrice(context.Background(), "price_basic")
			require.NoError(t, err)
		}
		assert.Equal(t, 3, f.calls, "ttl %s", ttl)
	}
}

func TestPriceCatalogDoesNotCacheFailures(t *testing.T) {
	f := &countingFetcher{err: errors.New("provider down")}
	c := NewPriceCatalog(f, time.Minute)

	_, err := c.RetrievePrice(context.Background(), "price_basic")
	require.Error(t, err)

	f.err = nil
	p, err := c.RetrievePrice(context.Background(), "price_basic")
	require.NoError(t, err)
	assert.Equal(t, "price_basic", p.ID)
	assert.Equal(t, 2, f.calls)
}
