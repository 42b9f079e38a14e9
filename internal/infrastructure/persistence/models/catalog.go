package models

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	ItemCode      string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ItemName      string          `gorm:"type:varchar(200);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity int             `gorm:"not null;default:0"`
	Category      string          `gorm:"type:varchar(100)"`
	Description   string          `gorm:"type:text"`
	ImageURL      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ItemCode:          m.ItemCode,
		ItemName:          m.ItemName,
		Price:             m.Price,
		StockQuantity:     m.StockQuantity,
		Category:          m.Category,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ItemCode = p.ItemCode
	m.ItemName = p.ItemName
	m.Price = p.Price
	m.StockQuantity = p.StockQuantity
	m.Category = p.Category
	m.Description = p.Description
	m.ImageURL = p.ImageURL
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
