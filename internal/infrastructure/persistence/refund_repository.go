package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/billing"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRefundRepository implements RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByIDForTenant finds a refund with its items within a tenant
func (r *GormRefundRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Refund, error) {
	var refund billing.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&refund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &refund, nil
}

// FindByTransaction finds all refunds raised against a transaction
func (r *GormRefundRepository) FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]billing.Refund, error) {
	var refunds []billing.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).
		Order("created_at ASC").
		Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// Save creates or updates a refund with its items
func (r *GormRefundRepository) Save(ctx context.Context, refund *billing.Refund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(refund).Error; err != nil {
			return err
		}

		for i := range refund.Items {
			refund.Items[i].RefundID = refund.ID
			if err := tx.Save(&refund.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Ensure GormRefundRepository implements RefundRepository
var _ billing.RefundRepository = (*GormRefundRepository)(nil)
