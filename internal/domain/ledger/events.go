package ledger

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Event types emitted by the stock ledger
const (
	EventTypeStockChanged        = "ledger.stock_changed"
	EventTypeStockBelowThreshold = "ledger.stock_below_threshold"
)

// StockChangedEvent is emitted after every successful quantity mutation. It is
// the payload the read-replica sync consumes; delivery is fire-and-forget and
// must never affect the mutation outcome.
type StockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID        uuid.UUID    `json:"product_id"`
	LocationID       uuid.UUID    `json:"location_id"`
	MovementType     MovementType `json:"movement_type"`
	Delta            int64        `json:"delta"`
	Quantity         int64        `json:"quantity"`
	ReservedQuantity int64        `json:"reserved_quantity"`
	Reference        string       `json:"reference"`
}

// NewStockChangedEvent creates a new StockChangedEvent
func NewStockChangedEvent(level *StockLevel, movement *StockMovement) *StockChangedEvent {
	return &StockChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockChanged, "StockLevel", level.ID, level.TenantID),
		ProductID:        level.ProductID,
		LocationID:       level.LocationID,
		MovementType:     movement.MovementType,
		Delta:            movement.Delta,
		Quantity:         level.Quantity,
		ReservedQuantity: level.ReservedQuantity,
		Reference:        movement.Reference,
	}
}

// StockBelowThresholdEvent is emitted when a mutation leaves quantity at or
// below the configured minimum threshold.
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID       uuid.UUID `json:"product_id"`
	LocationID      uuid.UUID `json:"location_id"`
	Quantity        int64     `json:"quantity"`
	MinThreshold    int64     `json:"min_threshold"`
	ReorderPoint    int64     `json:"reorder_point"`
	ReorderQuantity int64     `json:"reorder_quantity"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(level *StockLevel) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, "StockLevel", level.ID, level.TenantID),
		ProductID:       level.ProductID,
		LocationID:      level.LocationID,
		Quantity:        level.Quantity,
		MinThreshold:    level.MinThreshold,
		ReorderPoint:    level.ReorderPoint,
		ReorderQuantity: level.ReorderQuantity,
	}
}
