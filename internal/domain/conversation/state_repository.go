package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateRepository defines the persistence interface for conversation state.
// Expiry is enforced by the service with a lazy sweep at read time, not by a
// background job.
type StateRepository interface {
	// FindCurrent returns the customer's state row, expired or not.
	// Returns shared.ErrNotFound when no row exists.
	FindCurrent(ctx context.Context, customerID uuid.UUID) (*State, error)

	// Upsert writes the state so that no duplicate authoritative rows are
	// visible to a subsequent FindCurrent
	Upsert(ctx context.Context, state *State) error

	// DeleteForCustomer removes all state rows for the customer
	DeleteForCustomer(ctx context.Context, customerID uuid.UUID) error

	// PurgeExpired deletes every row whose expiry is at or before now and
	// returns the number of rows removed
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
