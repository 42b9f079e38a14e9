package conversation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// IdentityService resolves an inbound phone number to exactly one customer,
// creating the record on first contact
type IdentityService struct {
	customerRepo partner.CustomerRepository
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(customerRepo partner.CustomerRepository) *IdentityService {
	return &IdentityService{
		customerRepo: customerRepo,
	}
}

// Resolve maps a raw phone to a customer. Lookup order: exact canonical
// match, then digit-suffix match to absorb country-code drift, then insert.
// A concurrent insert losing the uniqueness race falls back to re-reading
// the winner, so two racing messages converge on one customer row.
func (s *IdentityService) Resolve(ctx context.Context, phoneRaw string) (*partner.Customer, error) {
	phone := partner.NormalizePhone(phoneRaw)
	if phone == "" {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone cannot be empty")
	}

	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// Suffix matching can bind an unrelated customer who shares the trailing
	// digits. Lebanese numbers carry 8 significant digits, so the suffix is
	// the full national number; the risk only materializes with corrupt ERP
	// phone data. CanonicalSuffixLen is the knob if that ever happens.
	tail := partner.PhoneTail(phone, partner.CanonicalSuffixLen)
	customer, err = s.customerRepo.FindByPhoneSuffix(ctx, tail)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	customer, err = partner.NewCustomer(phone)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the insert race; the winner's row is authoritative.
			logger.L(ctx).Debug("customer insert race resolved by re-read", zap.String("phone", phone))
			return s.customerRepo.FindByPhone(ctx, phone)
		}
		return nil, err
	}
	return customer, nil
}
