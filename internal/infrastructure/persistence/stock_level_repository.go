package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockLevelRepository implements StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByID finds a stock level by its ID
func (r *GormStockLevelRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockLevel, error) {
	var level ledger.StockLevel
	if err := r.db.WithContext(ctx).First(&level, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByProductAndLocation finds the unique stock level for a product-location pair
func (r *GormStockLevelRepository) FindByProductAndLocation(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*ledger.StockLevel, error) {
	var level ledger.StockLevel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID).
		First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindAllForTenant finds stock levels for a tenant with filtering
func (r *GormStockLevelRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockLevel, error) {
	var levels []ledger.StockLevel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockLevel{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// FindBelowMinimum finds levels at or below their minimum threshold
func (r *GormStockLevelRepository) FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockLevel, error) {
	var levels []ledger.StockLevel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockLevel{}).
			Where("tenant_id = ? AND min_threshold > 0 AND quantity <= min_threshold", tenantID),
		filter,
	)

	if err := query.Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// CountForTenant counts stock levels matching the filter
func (r *GormStockLevelRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&ledger.StockLevel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetOrCreate gets the existing stock level or lazily creates a zero row
func (r *GormStockLevelRepository) GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*ledger.StockLevel, error) {
	level, err := r.FindByProductAndLocation(ctx, tenantID, productID, locationID)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	level, err = ledger.NewStockLevel(tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT covers the race where two writers create the same pair
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}, {Name: "location_id"}},
			DoNothing: true,
		}).
		Create(level).Error; err != nil {
		return nil, err
	}

	if level.ID == uuid.Nil {
		return r.FindByProductAndLocation(ctx, tenantID, productID, locationID)
	}

	return level, nil
}

// Save creates or updates a stock level without a version check
func (r *GormStockLevelRepository) Save(ctx context.Context, level *ledger.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockLevelRepository) SaveWithLock(ctx context.Context, level *ledger.StockLevel) error {
	result := r.db.WithContext(ctx).
		Model(level).
		Where("id = ? AND version = ?", level.ID, level.Version-1).
		Updates(map[string]interface{}{
			"quantity":          level.Quantity,
			"reserved_quantity": level.ReservedQuantity,
			"min_threshold":     level.MinThreshold,
			"max_threshold":     level.MaxThreshold,
			"reorder_point":     level.ReorderPoint,
			"reorder_quantity":  level.ReorderQuantity,
			"last_count_date":   level.LastCountDate,
			"version":           level.Version,
			"updated_at":        level.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrOptimisticLock
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormStockLevelRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormStockLevelRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "location_id":
			query = query.Where("location_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "below_minimum":
			if value == true {
				query = query.Where("min_threshold > 0 AND quantity <= min_threshold")
			}
		case "out_of_stock":
			if value == true {
				query = query.Where("quantity = 0")
			}
		case "has_stock":
			if value == true {
				query = query.Where("quantity - reserved_quantity > 0")
			}
		}
	}

	return query
}

// Ensure GormStockLevelRepository implements StockLevelRepository
var _ ledger.StockLevelRepository = (*GormStockLevelRepository)(nil)
