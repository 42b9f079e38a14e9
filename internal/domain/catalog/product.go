package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Product represents a catalog item synced from Brains. The item code is the
// external SKU and the upsert key; local rows are never deleted, zero stock
// only hides the product from customer-facing search.
type Product struct {
	shared.BaseAggregateRoot
	ItemCode      string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ItemName      string          `gorm:"type:varchar(200);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity int             `gorm:"not null;default:0"`
	Category      string          `gorm:"type:varchar(100)"`
	Description   string          `gorm:"type:text"`
	ImageURL      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product from the Brains SKU and name
func NewProduct(itemCode, itemName string) (*Product, error) {
	if itemCode == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_CODE", "Item code cannot be empty")
	}
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemCode:          itemCode,
		ItemName:          itemName,
		Price:             decimal.Zero,
	}, nil
}

// ApplyFeed overwrites the product from a Brains feed row. Unknown upstream
// fields arrive as zero values and are stored as-is; the feed is the system
// of record for the whole catalog row.
func (p *Product) ApplyFeed(itemName string, price decimal.Decimal, stockQuantity int, category, description, imageURL string) {
	if itemName != "" {
		p.ItemName = itemName
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	p.Price = price
	if stockQuantity < 0 {
		stockQuantity = 0
	}
	p.StockQuantity = stockQuantity
	p.Category = category
	p.Description = description
	p.ImageURL = imageURL
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// InStock reports whether the product is visible to customer-facing browse
// and search.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
