package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository defines the persistence interface for orders
type OrderRepository interface {
	// Create persists the order header and every line item as a single
	// atomic unit. A mid-write fault must leave no partial order visible.
	// Returns shared.ErrAlreadyExists on an order number collision.
	Create(ctx context.Context, order *Order) error

	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindLatestByCustomer returns the customer's most recent order
	FindLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*Order, error)

	// Save updates the order header (status transitions, invoice linkage)
	Save(ctx context.Context, order *Order) error

	// FindAll finds orders matching the filter, items preloaded
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
