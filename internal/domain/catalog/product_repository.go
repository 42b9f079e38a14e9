package catalog

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared"
)

// ProductRepository defines the persistence interface for catalog products
type ProductRepository interface {
	// FindByItemCode finds a product by its Brains SKU
	FindByItemCode(ctx context.Context, itemCode string) (*Product, error)

	// Search returns in-stock products matching the query, ranked exact-code
	// match first, then name-prefix match, then name relevance. Zero-stock
	// rows are excluded, never deleted.
	Search(ctx context.Context, query string, limit, offset int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
