package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/brains"
)

// stubFeed serves canned Brains feed responses
type stubFeed struct {
	items       []brains.ItemRecord
	accounts    []brains.AccountRecord
	itemsErr    error
	accountsErr error
}

func (f *stubFeed) FetchItems(context.Context) ([]brains.ItemRecord, error) {
	return f.items, f.itemsErr
}

func (f *stubFeed) FetchAccounts(context.Context) ([]brains.AccountRecord, error) {
	return f.accounts, f.accountsErr
}

// spyCache counts invalidations
type spyCache struct {
	calls int
}

func (c *spyCache) InvalidateSearch(context.Context) error {
	c.calls++
	return nil
}

// memProductRepo is an in-memory ProductRepository keyed by SKU
type memProductRepo struct {
	products map[string]*catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[string]*catalog.Product)}
}

func (r *memProductRepo) FindByItemCode(_ context.Context, itemCode string) (*catalog.Product, error) {
	if p, ok := r.products[itemCode]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) Search(_ context.Context, query string, limit, offset int) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.InStock() && strings.Contains(strings.ToLower(p.ItemName), strings.ToLower(query)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	copied := *product
	r.products[product.ItemCode] = &copied
	return nil
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.products)), nil
}

// memCustomerRepo is an in-memory CustomerRepository
type memCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	if c, ok := r.customers[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) FindByPhone(_ context.Context, phone string) (*partner.Customer, error) {
	for _, c := range r.customers {
		if c.Phone == phone {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) FindByPhoneSuffix(_ context.Context, tail string) (*partner.Customer, error) {
	for _, c := range r.customers {
		if strings.HasSuffix(c.Phone, tail) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) FindByBrainsCode(_ context.Context, code string) (*partner.Customer, error) {
	for _, c := range r.customers {
		if c.BrainsAccountCode != nil && *c.BrainsAccountCode == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) Create(_ context.Context, customer *partner.Customer) error {
	for _, c := range r.customers {
		if c.Phone == customer.Phone {
			return shared.ErrAlreadyExists
		}
	}
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *memCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *memCustomerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	out := make([]partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCustomerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.customers)), nil
}

func TestBrainsSyncService_SyncProducts_Idempotent(t *testing.T) {
	feed := &stubFeed{items: []brains.ItemRecord{
		{ItemCode: "BK-001", ItemName: "Algebra Book", Price: decimal.RequireFromString("10.00"), StockQuantity: 5},
		{ItemCode: "BK-002", ItemName: "Cookbook", Price: decimal.RequireFromString("30.00"), StockQuantity: 2},
	}}
	products := newMemProductRepo()
	cache := &spyCache{}
	service := NewBrainsSyncService(feed, products, newMemCustomerRepo(), cache)
	ctx := context.Background()

	first, err := service.SyncProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Added)
	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, 1, cache.calls)

	// Replaying the identical feed changes nothing and skips the cache flush.
	second, err := service.SyncProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 1, cache.calls)
}

func TestBrainsSyncService_SyncProducts_UpdatesChangedRow(t *testing.T) {
	feed := &stubFeed{items: []brains.ItemRecord{
		{ItemCode: "BK-001", ItemName: "Algebra Book", Price: decimal.RequireFromString("10.00"), StockQuantity: 5},
	}}
	products := newMemProductRepo()
	service := NewBrainsSyncService(feed, products, newMemCustomerRepo(), nil)
	ctx := context.Background()

	_, err := service.SyncProducts(ctx)
	require.NoError(t, err)

	feed.items[0].Price = decimal.RequireFromString("12.00")
	feed.items[0].StockQuantity = 0

	result, err := service.SyncProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	stored, err := products.FindByItemCode(ctx, "BK-001")
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("12.00")))
	assert.False(t, stored.InStock(), "zero stock hides the product, row stays")
}

func TestBrainsSyncService_SyncProducts_MalformedRows(t *testing.T) {
	feed := &stubFeed{items: []brains.ItemRecord{
		{ItemCode: "", ItemName: "No SKU"},
		{ItemCode: "BK-003", ItemName: "Bargain Bin", Price: decimal.RequireFromString("-4.00"), StockQuantity: -2},
	}}
	products := newMemProductRepo()
	service := NewBrainsSyncService(feed, products, newMemCustomerRepo(), nil)
	ctx := context.Background()

	result, err := service.SyncProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped, "row without SKU cannot be upserted")
	assert.Equal(t, 1, result.Added)

	stored, err := products.FindByItemCode(ctx, "BK-003")
	require.NoError(t, err)
	assert.True(t, stored.Price.IsZero(), "negative price clamps to zero")
	assert.Equal(t, 0, stored.StockQuantity)

	// The clamped row does not count as changed on replay.
	result, err = service.SyncProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
}

func TestBrainsSyncService_SyncProducts_FeedUnreachable(t *testing.T) {
	feed := &stubFeed{itemsErr: errors.New("connection refused")}
	service := NewBrainsSyncService(feed, newMemProductRepo(), newMemCustomerRepo(), nil)

	_, err := service.SyncProducts(context.Background())
	assert.Error(t, err)
}

func TestBrainsSyncService_SyncCustomers_MatchByPhoneLinksAccount(t *testing.T) {
	customers := newMemCustomerRepo()
	ctx := context.Background()

	// Customer created by a webhook, with chat-captured name.
	existing, err := partner.NewCustomer("03080203")
	require.NoError(t, err)
	require.NoError(t, existing.SetName("Rita from Chat"))
	require.NoError(t, customers.Save(ctx, existing))

	feed := &stubFeed{accounts: []brains.AccountRecord{{
		AccountCode: "ACC-1",
		AccountName: "Rita Khoury",
		Phone:       "+9613080203",
		Email:       "rita@example.com",
		Balance:     decimal.RequireFromString("150.00"),
		CreditLimit: decimal.RequireFromString("500.00"),
	}}}
	service := NewBrainsSyncService(feed, newMemProductRepo(), customers, nil)

	result, err := service.SyncCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Added)

	stored, err := customers.FindByPhone(ctx, "03080203")
	require.NoError(t, err)
	require.NotNil(t, stored.BrainsAccountCode)
	assert.Equal(t, "ACC-1", *stored.BrainsAccountCode)
	assert.Equal(t, "Rita from Chat", stored.Name, "chat data is never overwritten")
	assert.Equal(t, "rita@example.com", stored.Email, "empty fields are filled")
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("150.00")), "financials always refresh")
}

func TestBrainsSyncService_SyncCustomers_PhoneFromDescription(t *testing.T) {
	feed := &stubFeed{accounts: []brains.AccountRecord{{
		AccountCode: "ACC-2",
		AccountName: "Fadi Haddad",
		Description: "deliveries call 03/080/204 after 5pm",
	}}}
	customers := newMemCustomerRepo()
	service := NewBrainsSyncService(feed, newMemProductRepo(), customers, nil)

	result, err := service.SyncCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	stored, err := customers.FindByPhone(context.Background(), "03080204")
	require.NoError(t, err)
	assert.Equal(t, "Fadi Haddad", stored.Name)
}

func TestBrainsSyncService_SyncCustomers_NoPhoneSkipped(t *testing.T) {
	feed := &stubFeed{accounts: []brains.AccountRecord{{
		AccountCode: "ACC-3",
		AccountName: "Walk-in Counter",
	}}}
	customers := newMemCustomerRepo()
	service := NewBrainsSyncService(feed, newMemProductRepo(), customers, nil)

	result, err := service.SyncCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	count, _ := customers.Count(context.Background(), shared.Filter{})
	assert.Equal(t, int64(0), count)
}

func TestBrainsSyncService_SyncCustomers_MatchByAccountCode(t *testing.T) {
	customers := newMemCustomerRepo()
	ctx := context.Background()

	existing, err := partner.NewCustomer("70123456")
	require.NoError(t, err)
	require.NoError(t, existing.LinkBrainsAccount("ACC-4"))
	require.NoError(t, customers.Save(ctx, existing))

	// The feed's phone differs; the account code wins.
	feed := &stubFeed{accounts: []brains.AccountRecord{{
		AccountCode: "ACC-4",
		Phone:       "01999999",
		Balance:     decimal.RequireFromString("25.00"),
	}}}
	service := NewBrainsSyncService(feed, newMemProductRepo(), customers, nil)

	result, err := service.SyncCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	count, _ := customers.Count(ctx, shared.Filter{})
	assert.Equal(t, int64(1), count, "no duplicate row created")
}

func TestBrainsSyncService_SyncCustomers_Idempotent(t *testing.T) {
	feed := &stubFeed{accounts: []brains.AccountRecord{{
		AccountCode: "ACC-5",
		AccountName: "Nadia",
		Phone:       "+96171234567",
	}}}
	customers := newMemCustomerRepo()
	service := NewBrainsSyncService(feed, newMemProductRepo(), customers, nil)
	ctx := context.Background()

	first, err := service.SyncCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)

	second, err := service.SyncCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, second.Updated, "second run matches by account code")

	count, _ := customers.Count(ctx, shared.Filter{})
	assert.Equal(t, int64(1), count)
}

func TestBrainsSyncService_SyncAll(t *testing.T) {
	feed := &stubFeed{
		items: []brains.ItemRecord{
			{ItemCode: "BK-001", ItemName: "Algebra Book", Price: decimal.RequireFromString("10.00"), StockQuantity: 5},
		},
		accounts: []brains.AccountRecord{
			{AccountCode: "ACC-1", AccountName: "Rita", Phone: "03080203"},
		},
	}
	service := NewBrainsSyncService(feed, newMemProductRepo(), newMemCustomerRepo(), nil)

	report, err := service.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Products.Added)
	assert.Equal(t, 1, report.Customers.Added)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestBrainsSyncService_SyncAll_AbortsOnFeedError(t *testing.T) {
	feed := &stubFeed{itemsErr: errors.New("gateway timeout")}
	service := NewBrainsSyncService(feed, newMemProductRepo(), newMemCustomerRepo(), nil)

	_, err := service.SyncAll(context.Background())
	assert.Error(t, err)
}
