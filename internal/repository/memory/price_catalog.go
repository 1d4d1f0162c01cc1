package memory

import (
	"context"
	"time"

	"saas-billing-be/internal/pkg/gateway"

	"github.com/patrickmn/go-cache"
)

// PriceFetcher is the part of the billing gateway the catalog needs.
type PriceFetcher interface {
	RetrievePrice(ctx context.Context, priceID string) (*gateway.Price, error)
}

// PriceCatalog caches provider prices so repeated checkouts for the same plan
// do not each cost a provider round trip. Errors are never cached. A ttl of
// zero or less disables caching.
type PriceCatalog struct {
	cache   *cache.Cache
	fetcher PriceFetcher
}

func NewPriceCatalog(fetcher PriceFetcher, ttl time.Duration) *PriceCatalog {
	c := &PriceCatalog{fetcher: fetcher}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

func (c *PriceCatalog) RetrievePrice(ctx context.Context, priceID string) (*gateway.Price, error) {
	if c.cache == nil {
		return c.fetcher.RetrievePrice(ctx, priceID)
	}
	if x, found := c.cache.Get(priceID); found {
		return x.(*gateway.Price), nil
	}

	p, err := c.fetcher.RetrievePrice(ctx, priceID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(priceID, p, cache.DefaultExpiration)
	return p, nil
}
