package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/ledger"
)

// StockLevelResponse is the API representation of a stock level
type StockLevelResponse struct {
	ID               uuid.UUID  `json:"id"`
	ProductID        uuid.UUID  `json:"product_id"`
	LocationID       uuid.UUID  `json:"location_id"`
	Quantity         int64      `json:"quantity"`
	ReservedQuantity int64      `json:"reserved_quantity"`
	Available        int64      `json:"available"`
	MinThreshold     int64      `json:"min_threshold"`
	MaxThreshold     int64      `json:"max_threshold"`
	ReorderPoint     int64      `json:"reorder_point"`
	ReorderQuantity  int64      `json:"reorder_quantity"`
	LastCountDate    *time.Time `json:"last_count_date,omitempty"`
	Version          int        `json:"version"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ToStockLevelResponse converts a domain StockLevel to its API representation
func ToStockLevelResponse(level *ledger.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:               level.ID,
		ProductID:        level.ProductID,
		LocationID:       level.LocationID,
		Quantity:         level.Quantity,
		ReservedQuantity: level.ReservedQuantity,
		Available:        level.Available(),
		MinThreshold:     level.MinThreshold,
		MaxThreshold:     level.MaxThreshold,
		ReorderPoint:     level.ReorderPoint,
		ReorderQuantity:  level.ReorderQuantity,
		LastCountDate:    level.LastCountDate,
		Version:          level.Version,
		UpdatedAt:        level.UpdatedAt,
	}
}

// StockMovementResponse is the API representation of a journal entry
type StockMovementResponse struct {
	ID           uuid.UUID `json:"id"`
	StockLevelID uuid.UUID `json:"stock_level_id"`
	ProductID    uuid.UUID `json:"product_id"`
	LocationID   uuid.UUID `json:"location_id"`
	MovementType string    `json:"movement_type"`
	Delta        int64     `json:"delta"`
	PreviousQty  int64     `json:"previous_qty"`
	NewQty       int64     `json:"new_qty"`
	Reference    string    `json:"reference,omitempty"`
	PerformedBy  uuid.UUID `json:"performed_by"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ToStockMovementResponse converts a domain StockMovement to its API representation
func ToStockMovementResponse(m *ledger.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:           m.ID,
		StockLevelID: m.StockLevelID,
		ProductID:    m.ProductID,
		LocationID:   m.LocationID,
		MovementType: m.MovementType.String(),
		Delta:        m.Delta,
		PreviousQty:  m.PreviousQty,
		NewQty:       m.NewQty,
		Reference:    m.Reference,
		PerformedBy:  m.PerformedBy,
		OccurredAt:   m.OccurredAt,
	}
}

// StockAlertResponse is one low-stock alert row
type StockAlertResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	LocationID      uuid.UUID `json:"location_id"`
	Quantity        int64     `json:"quantity"`
	Available       int64     `json:"available"`
	MinThreshold    int64     `json:"min_threshold"`
	ReorderPoint    int64     `json:"reorder_point"`
	ReorderQuantity int64     `json:"reorder_quantity"`
	OutOfStock      bool      `json:"out_of_stock"`
}

// ToStockAlertResponse converts a below-minimum StockLevel to an alert row
func ToStockAlertResponse(level *ledger.StockLevel) StockAlertResponse {
	return StockAlertResponse{
		ProductID:       level.ProductID,
		LocationID:      level.LocationID,
		Quantity:        level.Quantity,
		Available:       level.Available(),
		MinThreshold:    level.MinThreshold,
		ReorderPoint:    level.ReorderPoint,
		ReorderQuantity: level.ReorderQuantity,
		OutOfStock:      level.IsOutOfStock(),
	}
}

// ApplyDeltaRequest adjusts one stock level by a signed delta
type ApplyDeltaRequest struct {
	ProductID    uuid.UUID `json:"product_id" binding:"required"`
	LocationID   uuid.UUID `json:"location_id" binding:"required"`
	Delta        int64     `json:"delta" binding:"required"`
	MovementType string    `json:"movement_type" binding:"required"`
	Reference    string    `json:"reference"`
}

// SetQuantityRequest sets one stock level to an absolute quantity. The service
// converts it to a delta so the journal still records the signed change.
type SetQuantityRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	LocationID uuid.UUID `json:"location_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"min=0"`
	// Counted marks the write as a physical count (COUNT_ADJUSTMENT) rather
	// than a plain correction (ADJUSTMENT)
	Counted   bool   `json:"counted"`
	Reference string `json:"reference"`
}

// BulkUpdateRequest applies several deltas in one call. Items are independent:
// one item failing does not roll back the others.
type BulkUpdateRequest struct {
	Items []ApplyDeltaRequest `json:"items" binding:"required,min=1,dive"`
}

// BulkItemError reports one failed bulk item with its index in the request
type BulkItemError struct {
	Index     int       `json:"index"`
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// BulkUpdateReport is the mixed success/failure outcome of a bulk update
type BulkUpdateReport struct {
	Succeeded []StockLevelResponse `json:"succeeded"`
	Failed    []BulkItemError      `json:"failed"`
}

// ReserveRequest places a hold on available stock
type ReserveRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	LocationID uuid.UUID `json:"location_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required,min=1"`
	Reference  string    `json:"reference" binding:"required"`
	// TTLSeconds overrides the configured default reservation lifetime
	TTLSeconds int64 `json:"ttl_seconds"`
}

// ReleaseRequest returns held stock to the available pool
type ReleaseRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	LocationID uuid.UUID `json:"location_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required,min=1"`
	Reference  string    `json:"reference"`
}

// ReleaseResponse reports the quantity actually released after clamping
type ReleaseResponse struct {
	Released int64              `json:"released"`
	Level    StockLevelResponse `json:"level"`
}

// StockListFilter narrows stock level queries
type StockListFilter struct {
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
	LocationID   *uuid.UUID `form:"location_id"`
	ProductID    *uuid.UUID `form:"product_id"`
	BelowMinimum bool       `form:"below_minimum"`
	OutOfStock   bool       `form:"out_of_stock"`
}

// MovementListFilter narrows movement journal queries
type MovementListFilter struct {
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
	LocationID   *uuid.UUID `form:"location_id"`
	ProductID    *uuid.UUID `form:"product_id"`
	MovementType string     `form:"movement_type"`
	Reference    string     `form:"reference"`
}
