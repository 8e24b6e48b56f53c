package lookup

import (
	"context"
	"sync/atomic"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// catalogCache is a single-slot cache for the CNAE catalog. The slot is
// replaced wholesale with atomic.Value, never mutated in place, so
// readers always see either nothing or a complete catalog. Concurrent
// first-time callers may each fetch; the last write wins and both get a
// valid result.
type catalogCache struct {
	provider CatalogProvider
	slot     atomic.Value // []models.CNAEEntry
}

func newCatalogCache(provider CatalogProvider) *catalogCache {
	return &catalogCache{provider: provider}
}

func (c *catalogCache) get(ctx context.Context) ([]models.CNAEEntry, error) {
	if cached, ok := c.slot.Load().([]models.CNAEEntry); ok && len(cached) > 0 {
		return cached, nil
	}

	catalog, err := c.provider.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) > 0 {
		c.slot.Store(catalog)
	}

	return catalog, nil
}
