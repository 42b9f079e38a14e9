package cache

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// SearchPageCache is the slice of ProductSearchCache the repository decorator
// needs
type SearchPageCache interface {
	GetPage(ctx context.Context, query string, limit, offset int) ([]catalog.Product, bool)
	SetPage(ctx context.Context, query string, limit, offset int, products []catalog.Product)
}

// CachedProductRepository decorates a ProductRepository with a read-through
// cache on Search. All other operations pass straight to the inner
// repository.
type CachedProductRepository struct {
	inner catalog.ProductRepository
	cache SearchPageCache
}

var _ catalog.ProductRepository = (*CachedProductRepository)(nil)

// NewCachedProductRepository wraps the given repository. A nil cache yields a
// transparent pass-through.
func NewCachedProductRepository(inner catalog.ProductRepository, cache SearchPageCache) *CachedProductRepository {
	return &CachedProductRepository{inner: inner, cache: cache}
}

// Search serves from cache when possible, falling back to the inner
// repository and populating the cache on a miss
func (r *CachedProductRepository) Search(ctx context.Context, query string, limit, offset int) ([]catalog.Product, error) {
	if r.cache == nil {
		return r.inner.Search(ctx, query, limit, offset)
	}

	if products, ok := r.cache.GetPage(ctx, query, limit, offset); ok {
		return products, nil
	}

	products, err := r.inner.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	r.cache.SetPage(ctx, query, limit, offset, products)
	return products, nil
}

// FindByItemCode delegates to the inner repository
func (r *CachedProductRepository) FindByItemCode(ctx context.Context, itemCode string) (*catalog.Product, error) {
	return r.inner.FindByItemCode(ctx, itemCode)
}

// Save delegates to the inner repository
func (r *CachedProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.inner.Save(ctx, product)
}

// FindAll delegates to the inner repository
func (r *CachedProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	return r.inner.FindAll(ctx, filter)
}

// Count delegates to the inner repository
func (r *CachedProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return r.inner.Count(ctx, filter)
}
