package trade

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the delivery progression of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusOnTheWay   OrderStatus = "on_the_way"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusOutOfStock OrderStatus = "out_of_stock"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the normal progression; cancel and out-of-stock are
// terminal exceptions reachable from any non-terminal status.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusPreparing: 2,
	OrderStatusOnTheWay:  3,
	OrderStatusDelivered: 4,
}

// IsTerminal reports whether no further transitions are allowed
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusOutOfStock:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to the target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() || s == target {
		return false
	}
	if target == OrderStatusCancelled || target == OrderStatusOutOfStock {
		return true
	}
	from, ok := statusRank[s]
	to, ok2 := statusRank[target]
	return ok && ok2 && to == from+1
}

// OrderItem is a line item with name and price snapshotted at order-creation
// time, independent of later catalog changes.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// Order is the aggregate root for a storefront order. Created atomically with
// all its items at checkout confirmation; never deleted.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes         string          `gorm:"type:text"`
	BrainsInvoice string          `gorm:"type:varchar(50)"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrderItem builds a line item, snapshotting the current catalog name and
// price
func NewOrderItem(productCode, productName string, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	if productCode == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &OrderItem{
		ID:          uuid.New(),
		ProductCode: productCode,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// NewOrder creates a pending order with its items. The total is derived from
// the line items.
func NewOrder(customerID uuid.UUID, orderNumber string, items []OrderItem, notes string) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one item")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		Status:            OrderStatusPending,
		Notes:             notes,
	}

	total := decimal.Zero
	for i := range items {
		items[i].OrderID = order.ID
		total = total.Add(items[i].LineTotal)
	}
	order.Items = items
	order.TotalAmount = total

	return order, nil
}

// TransitionTo advances the order status, guarding against skips and moves
// out of a terminal status
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// LinkBrainsInvoice records the invoice number Brains assigned to this order
func (o *Order) LinkBrainsInvoice(invoice string) {
	o.BrainsInvoice = invoice
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// GenerateOrderNumber builds a human-readable order number from the date and
// a random suffix. The package-level rand source is safe for concurrent
// webhook turns. Collisions are possible and handled by the caller with a
// bounded retry against the uniqueness constraint.
func GenerateOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", t.Format("20060102"), rand.Intn(10000))
}
