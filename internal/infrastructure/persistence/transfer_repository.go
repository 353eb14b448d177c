package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormStockTransferRepository implements StockTransferRepository using GORM
type GormStockTransferRepository struct {
	db *gorm.DB
}

// NewGormStockTransferRepository creates a new GormStockTransferRepository
func NewGormStockTransferRepository(db *gorm.DB) *GormStockTransferRepository {
	return &GormStockTransferRepository{db: db}
}

// FindByIDForTenant finds a transfer with its items within a tenant
func (r *GormStockTransferRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*transfer.StockTransfer, error) {
	var t transfer.StockTransfer
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAllForTenant finds transfers for a tenant with filtering
func (r *GormStockTransferRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var transfers []transfer.StockTransfer
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&transfer.StockTransfer{}).
			Preload("Items").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// CountForTenant counts transfers matching the filter
func (r *GormStockTransferRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&transfer.StockTransfer{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a transfer with its items
func (r *GormStockTransferRepository) Save(ctx context.Context, t *transfer.StockTransfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(t).Error; err != nil {
			return err
		}

		for i := range t.Items {
			t.Items[i].TransferID = t.ID
			if err := tx.Save(&t.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormStockTransferRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockTransferRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "from_location_id":
			query = query.Where("from_location_id = ?", value)
		case "to_location_id":
			query = query.Where("to_location_id = ?", value)
		case "location_id":
			query = query.Where("from_location_id = ? OR to_location_id = ?", value, value)
		}
	}

	return query
}

// Ensure GormStockTransferRepository implements StockTransferRepository
var _ transfer.StockTransferRepository = (*GormStockTransferRepository)(nil)
