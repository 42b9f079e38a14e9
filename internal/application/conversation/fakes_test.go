package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
)

// memCustomerRepo is an in-memory CustomerRepository for service tests
type memCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*partner.Customer

	// beforeCreate, when set, runs once inside Create before the duplicate
	// check. Lets tests interleave a concurrent insert.
	beforeCreate func(r *memCustomerRepo)
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) FindByPhone(_ context.Context, phone string) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Phone == phone {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) FindByPhoneSuffix(_ context.Context, tail string) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if strings.HasSuffix(c.Phone, tail) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) FindByBrainsCode(_ context.Context, code string) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.BrainsAccountCode != nil && *c.BrainsAccountCode == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomerRepo) Create(_ context.Context, customer *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeCreate != nil {
		hook := r.beforeCreate
		r.beforeCreate = nil
		hook(r)
	}
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
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *memCustomerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCustomerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.customers)), nil
}

// memProductRepo is an in-memory ProductRepository for service tests
type memProductRepo struct {
	products []catalog.Product
}

func (r *memProductRepo) FindByItemCode(_ context.Context, itemCode string) (*catalog.Product, error) {
	for i := range r.products {
		if r.products[i].ItemCode == itemCode {
			copied := r.products[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) Search(_ context.Context, query string, limit, offset int) ([]catalog.Product, error) {
	q := strings.ToLower(query)
	var matched []catalog.Product
	for _, p := range r.products {
		if !p.InStock() {
			continue
		}
		if strings.EqualFold(p.ItemCode, query) || strings.Contains(strings.ToLower(p.ItemName), q) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ItemName < matched[j].ItemName })
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	for i := range r.products {
		if r.products[i].ItemCode == product.ItemCode {
			r.products[i] = *product
			return nil
		}
	}
	r.products = append(r.products, *product)
	return nil
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	return append([]catalog.Product(nil), r.products...), nil
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.products)), nil
}

// memOrderRepo is an in-memory OrderRepository for service tests
type memOrderRepo struct {
	orders    []trade.Order
	createErr error
}

func (r *memOrderRepo) Create(_ context.Context, order *trade.Order) error {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	for i := range r.orders {
		if r.orders[i].OrderNumber == order.OrderNumber {
			return shared.ErrAlreadyExists
		}
	}
	r.orders = append(r.orders, *order)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == id {
			copied := r.orders[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindLatestByCustomer(_ context.Context, customerID uuid.UUID) (*trade.Order, error) {
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].CustomerID == customerID {
			copied := r.orders[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) Save(_ context.Context, order *trade.Order) error {
	for i := range r.orders {
		if r.orders[i].ID == order.ID {
			r.orders[i] = *order
			return nil
		}
	}
	r.orders = append(r.orders, *order)
	return nil
}

func (r *memOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]trade.Order, error) {
	return append([]trade.Order(nil), r.orders...), nil
}

func (r *memOrderRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.orders)), nil
}
