package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormStateRepository implements StateRepository using GORM
type GormStateRepository struct {
	db *gorm.DB
}

var _ conversation.StateRepository = (*GormStateRepository)(nil)

// NewGormStateRepository creates a new GormStateRepository
func NewGormStateRepository(db *gorm.DB) *GormStateRepository {
	return &GormStateRepository{db: db}
}

// FindCurrent returns the customer's state row, expired or not
func (r *GormStateRepository) FindCurrent(ctx context.Context, customerID uuid.UUID) (*conversation.State, error) {
	var model models.ConversationStateModel
	if err := r.db.WithContext(ctx).First(&model, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert writes the state as an insert-or-update keyed on customer_id, so
// concurrent webhook turns converge on a single authoritative row.
func (r *GormStateRepository) Upsert(ctx context.Context, state *conversation.State) error {
	model := &models.ConversationStateModel{}
	if err := model.FromDomain(state); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"step", "data", "expires_at", "updated_at"}),
		}).
		Create(model).Error
}

// DeleteForCustomer removes all state rows for the customer
func (r *GormStateRepository) DeleteForCustomer(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.ConversationStateModel{}).Error
}

// PurgeExpired deletes every row whose expiry is at or before now
func (r *GormStateRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.ConversationStateModel{})
	return result.RowsAffected, result.Error
}
