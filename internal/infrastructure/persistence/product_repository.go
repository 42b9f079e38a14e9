package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByItemCode finds a product by its Brains SKU
func (r *GormProductRepository) FindByItemCode(ctx context.Context, itemCode string) (*catalog.Product, error) {
	if itemCode == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_CODE", "Item code cannot be empty")
	}
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("item_code = ?", itemCode).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search returns in-stock products matching the query, ranked exact SKU
// match first, then name prefix, then name substring. LOWER/LIKE keeps the
// ranking portable across postgres and the sqlite test driver.
func (r *GormProductRepository) Search(ctx context.Context, query string, limit, offset int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	contains := "%" + query + "%"
	prefix := query + "%"

	var productModels []models.ProductModel
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("stock_quantity > 0").
		Where("item_code = ? OR LOWER(item_name) LIKE LOWER(?)", query, contains).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN item_code = ? THEN 0 WHEN LOWER(item_name) LIKE LOWER(?) THEN 1 ELSE 2 END, item_name",
			Vars:               []any{query, prefix},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Offset(offset).
		Find(&productModels).Error
	if err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindAll finds products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("item_code LIKE ? OR LOWER(item_name) LIKE LOWER(?)", pattern, pattern)
	}
	query = query.Order("item_name ASC")
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("item_code LIKE ? OR LOWER(item_name) LIKE LOWER(?)", pattern, pattern)
	}
	err := query.Count(&count).Error
	return count, err
}
