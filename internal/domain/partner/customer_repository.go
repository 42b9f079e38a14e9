package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// CustomerRepository defines the persistence interface for customers
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByPhone finds a customer by exact canonical phone
	FindByPhone(ctx context.Context, phone string) (*Customer, error)

	// FindByPhoneSuffix finds the customer whose phone ends with the given
	// digit tail. Tolerates country-code and leading-zero drift between
	// sources; can in pathological data match an unrelated customer who
	// shares the suffix (documented tradeoff, tunable via suffix length).
	FindByPhoneSuffix(ctx context.Context, tail string) (*Customer, error)

	// FindByBrainsCode finds a customer by Brains account code
	FindByBrainsCode(ctx context.Context, code string) (*Customer, error)

	// Create inserts a new customer. Returns shared.ErrAlreadyExists when the
	// phone or account code uniqueness constraint is violated.
	Create(ctx context.Context, customer *Customer) error

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// FindAll finds customers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
