package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Step is the customer's current position in the multi-turn checkout dialog
type Step string

const (
	StepIdle                     Step = "idle"
	StepBrowsingProducts         Step = "browsing_products"
	StepAwaitingProductSelection Step = "awaiting_product_selection"
	StepConfirmingProduct        Step = "confirming_product"
	StepAwaitingQuantity         Step = "awaiting_quantity"
	StepAwaitingName             Step = "awaiting_name"
	StepAwaitingEmail            Step = "awaiting_email"
	StepAwaitingAddress          Step = "awaiting_address"
	StepConfirmingOrder          Step = "confirming_order"
	StepAwaitingOrderCancel      Step = "awaiting_order_cancel"
)

// DefaultTTL bounds how long a partial checkout stays resumable. Thirty
// minutes matches a plausible single-session think time; anything older
// would carry stale product and price context.
const DefaultTTL = 30 * time.Minute

// Data is the accumulated key/value mapping a dialog gathers across turns
type Data map[string]string

// Well-known data keys accumulated across the checkout flow
const (
	DataKeyProductCode = "product_code"
	DataKeyProductName = "product_name"
	DataKeyUnitPrice   = "unit_price"
	DataKeyQuantity    = "quantity"
	DataKeyName        = "name"
	DataKeyEmail       = "email"
	DataKeyAddress     = "address"
	DataKeyQuery       = "query"
	DataKeyPage        = "page"
	DataKeyOrderID     = "order_id"
)

// State is the persisted per-customer conversation record. At most one
// non-expired state per customer is authoritative.
type State struct {
	CustomerID uuid.UUID
	Step       Step
	Data       Data
	ExpiresAt  time.Time
}

// NewIdleState synthesizes the default record for a customer with no live
// state
func NewIdleState(customerID uuid.UUID) *State {
	return &State{
		CustomerID: customerID,
		Step:       StepIdle,
		Data:       Data{},
	}
}

// Expired reports whether the state is past its TTL and must be treated as
// absent
func (s *State) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Merge shallow-merges partial data into the state; new keys win on conflict
func (s *State) Merge(partial Data) {
	if s.Data == nil {
		s.Data = Data{}
	}
	for k, v := range partial {
		s.Data[k] = v
	}
}

// Touch resets the TTL relative to now. Every write refreshes expiry.
func (s *State) Touch(now time.Time) {
	s.ExpiresAt = now.Add(DefaultTTL)
}
