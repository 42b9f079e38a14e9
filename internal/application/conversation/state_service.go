package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/shared"
)

// StateService manages persisted conversation state with TTL semantics. The
// repository stores rows verbatim; expiry is this service's concern, enforced
// lazily at read time.
type StateService struct {
	stateRepo conversation.StateRepository
	ttl       time.Duration
	now       func() time.Time
}

// StateServiceOption customizes a StateService
type StateServiceOption func(*StateService)

// WithStateTTL overrides the default expiry window for persisted states
func WithStateTTL(ttl time.Duration) StateServiceOption {
	return func(s *StateService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewStateService creates a new StateService
func NewStateService(stateRepo conversation.StateRepository, opts ...StateServiceOption) *StateService {
	s := &StateService{
		stateRepo: stateRepo,
		ttl:       conversation.DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the customer's current state. Expired rows are purged and an
// idle state synthesized, so callers never observe a stale step.
func (s *StateService) Get(ctx context.Context, customerID uuid.UUID) (*conversation.State, error) {
	now := s.now()
	// Opportunistic sweep; failure is not fatal for this read.
	_, _ = s.stateRepo.PurgeExpired(ctx, now)

	state, err := s.stateRepo.FindCurrent(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return conversation.NewIdleState(customerID), nil
		}
		return nil, err
	}
	if state.Expired(now) {
		if err := s.stateRepo.DeleteForCustomer(ctx, customerID); err != nil {
			return nil, err
		}
		return conversation.NewIdleState(customerID), nil
	}
	return state, nil
}

// Set transitions the customer to a step, merging partial data into whatever
// the state already carries and refreshing the TTL
func (s *StateService) Set(ctx context.Context, state *conversation.State, step conversation.Step, partial conversation.Data) error {
	state.Step = step
	state.Merge(partial)
	state.ExpiresAt = s.now().Add(s.ttl)
	return s.stateRepo.Upsert(ctx, state)
}

// Clear removes the customer's state entirely. The next Get synthesizes idle.
func (s *StateService) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.stateRepo.DeleteForCustomer(ctx, customerID)
}
