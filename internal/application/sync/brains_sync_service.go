package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/brains"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Feed is the slice of the Brains client the sync consumes
type Feed interface {
	FetchItems(ctx context.Context) ([]brains.ItemRecord, error)
	FetchAccounts(ctx context.Context) ([]brains.AccountRecord, error)
}

// CacheInvalidator drops cached catalog search results after a product sync
type CacheInvalidator interface {
	InvalidateSearch(ctx context.Context) error
}

// SyncResult summarizes one sync pass over a feed
type SyncResult struct {
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// SyncReport is the combined outcome of a full reconciliation run
type SyncReport struct {
	Products   SyncResult `json:"products"`
	Customers  SyncResult `json:"customers"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// BrainsSyncService reconciles the local catalog and customer base against
// the Brains ERP feeds. Runs are idempotent: replaying an unchanged feed
// leaves the database as it was.
type BrainsSyncService struct {
	feed      Feed
	products  catalog.ProductRepository
	customers partner.CustomerRepository
	cache     CacheInvalidator
}

// NewBrainsSyncService creates a new BrainsSyncService. The cache invalidator
// is optional; pass nil when no cache is wired.
func NewBrainsSyncService(
	feed Feed,
	products catalog.ProductRepository,
	customers partner.CustomerRepository,
	cache CacheInvalidator,
) *BrainsSyncService {
	return &BrainsSyncService{
		feed:      feed,
		products:  products,
		customers: customers,
		cache:     cache,
	}
}

// SyncAll runs the product sync followed by the customer sync. A feed that
// cannot be fetched aborts the run; per-row failures are recorded and
// skipped.
func (s *BrainsSyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{StartedAt: time.Now()}

	products, err := s.SyncProducts(ctx)
	if err != nil {
		return nil, err
	}
	report.Products = products

	customers, err := s.SyncCustomers(ctx)
	if err != nil {
		return nil, err
	}
	report.Customers = customers

	report.FinishedAt = time.Now()
	logger.L(ctx).Info("brains sync finished",
		zap.Int("products_added", products.Added),
		zap.Int("products_updated", products.Updated),
		zap.Int("customers_added", customers.Added),
		zap.Int("customers_updated", customers.Updated),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// SyncProducts upserts the catalog from the Brains item feed, keyed by SKU.
// Rows without an item code cannot be addressed on a later run and are
// skipped. Local products absent from the feed are left untouched.
func (s *BrainsSyncService) SyncProducts(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	items, err := s.feed.FetchItems(ctx)
	if err != nil {
		return result, fmt.Errorf("brains item feed: %w", err)
	}

	for _, item := range items {
		if item.ItemCode == "" {
			result.Skipped++
			continue
		}

		product, err := s.products.FindByItemCode(ctx, item.ItemCode)
		switch {
		case err == nil:
			if productUnchanged(product, item) {
				result.Skipped++
				continue
			}
			product.ApplyFeed(item.ItemName, item.Price, item.StockQuantity, item.Category, item.Description, item.ImageURL)
			if err := s.products.Save(ctx, product); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ItemCode, err))
				continue
			}
			result.Updated++

		case errors.Is(err, shared.ErrNotFound):
			product, err := catalog.NewProduct(item.ItemCode, item.ItemName)
			if err != nil {
				result.Skipped++
				continue
			}
			product.ApplyFeed(item.ItemName, item.Price, item.StockQuantity, item.Category, item.Description, item.ImageURL)
			if err := s.products.Save(ctx, product); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ItemCode, err))
				continue
			}
			result.Added++

		default:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ItemCode, err))
		}
	}

	if s.cache != nil && result.Added+result.Updated > 0 {
		if err := s.cache.InvalidateSearch(ctx); err != nil {
			logger.L(ctx).Warn("search cache invalidation failed", zap.Error(err))
		}
	}
	return result, nil
}

// SyncCustomers reconciles the customer base from the Brains account feed.
// Matching order: account code, then any phone found in the record. Matched
// customers get financials refreshed and empty profile fields filled; data
// captured in chat is never overwritten. Unmatched accounts with a usable
// phone become new customers; without one they are skipped.
func (s *BrainsSyncService) SyncCustomers(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	accounts, err := s.feed.FetchAccounts(ctx)
	if err != nil {
		return result, fmt.Errorf("brains account feed: %w", err)
	}

	for _, account := range accounts {
		if account.AccountCode == "" {
			result.Skipped++
			continue
		}

		customer, err := s.matchAccount(ctx, account)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account.AccountCode, err))
			continue
		}

		if customer != nil {
			if err := s.applyAccount(ctx, customer, account); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account.AccountCode, err))
				continue
			}
			result.Updated++
			continue
		}

		created, err := s.createFromAccount(ctx, account)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account.AccountCode, err))
			continue
		}
		if created {
			result.Added++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// matchAccount locates the local customer for a Brains account, or nil when
// no customer matches
func (s *BrainsSyncService) matchAccount(ctx context.Context, account brains.AccountRecord) (*partner.Customer, error) {
	customer, err := s.customers.FindByBrainsCode(ctx, account.AccountCode)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	for _, phone := range accountPhones(account) {
		customer, err := s.customers.FindByPhone(ctx, phone)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		customer, err = s.customers.FindByPhoneSuffix(ctx, partner.PhoneTail(phone, partner.CanonicalSuffixLen))
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// applyAccount updates a matched customer from the feed row
func (s *BrainsSyncService) applyAccount(ctx context.Context, customer *partner.Customer, account brains.AccountRecord) error {
	if !customer.HasBrainsAccount() {
		if err := customer.LinkBrainsAccount(account.AccountCode); err != nil {
			return err
		}
	}
	customer.FillFromSync(account.AccountName, account.Email, account.Address)
	customer.RefreshFinancials(account.Balance, account.CreditLimit)
	return s.customers.Save(ctx, customer)
}

// createFromAccount inserts a new customer for an unmatched account. Returns
// false when the account carries no usable phone.
func (s *BrainsSyncService) createFromAccount(ctx context.Context, account brains.AccountRecord) (bool, error) {
	phones := accountPhones(account)
	if len(phones) == 0 {
		return false, nil
	}

	customer, err := partner.NewCustomer(phones[0])
	if err != nil {
		return false, err
	}
	if err := customer.LinkBrainsAccount(account.AccountCode); err != nil {
		return false, err
	}
	customer.FillFromSync(account.AccountName, account.Email, account.Address)
	customer.RefreshFinancials(account.Balance, account.CreditLimit)

	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// A webhook created this customer while the sync was running.
			existing, err := s.customers.FindByPhone(ctx, phones[0])
			if err != nil {
				return false, err
			}
			return false, s.applyAccount(ctx, existing, account)
		}
		return false, err
	}
	return true, nil
}

// accountPhones extracts every candidate canonical phone from an account
// row. The dedicated phone field comes first, then numbers embedded in the
// free-text description.
func accountPhones(account brains.AccountRecord) []string {
	var phones []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		phones = append(phones, p)
	}

	if account.Phone != "" {
		add(partner.NormalizePhone(account.Phone))
	}
	for _, p := range partner.ExtractPhones(account.Description) {
		add(p)
	}
	return phones
}

// productUnchanged reports whether a feed row carries nothing new for the
// stored product, letting an unchanged feed replay without version churn.
// The comparison mirrors ApplyFeed's clamping so a malformed row that was
// already normalized does not update forever.
func productUnchanged(p *catalog.Product, item brains.ItemRecord) bool {
	name := item.ItemName
	if name == "" {
		name = p.ItemName
	}
	price := item.Price
	if price.IsNegative() {
		price = decimal.Zero
	}
	stock := item.StockQuantity
	if stock < 0 {
		stock = 0
	}
	return p.ItemName == name &&
		p.Price.Equal(price) &&
		p.StockQuantity == stock &&
		p.Category == item.Category &&
		p.Description == item.Description &&
		p.ImageURL == item.ImageURL
}
