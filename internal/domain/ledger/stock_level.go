package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// StockLevel tracks quantity-on-hand and reserved quantity for one product at
// one location. It is the aggregate root for all ledger operations; the
// composite identifier is ProductID + LocationID within a tenant.
//
// Invariants maintained by every mutation:
//
//	0 <= ReservedQuantity <= Quantity
//
// Rows are created lazily on first stock-in and never deleted; quantity may
// fall to zero.
type StockLevel struct {
	shared.TenantAggregateRoot
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_location,priority:2"`
	LocationID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_location,priority:3"`
	Quantity         int64      `gorm:"not null;default:0"`
	ReservedQuantity int64      `gorm:"not null;default:0"`
	MinThreshold     int64      `gorm:"not null;default:0"`
	MaxThreshold     int64      `gorm:"not null;default:0"`
	ReorderPoint     int64      `gorm:"not null;default:0"`
	ReorderQuantity  int64      `gorm:"not null;default:0"`
	LastCountDate    *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a new stock level for a product-location combination
func NewStockLevel(tenantID, productID, locationID uuid.UUID) (*StockLevel, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Product ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Location ID cannot be empty")
	}
	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		LocationID:          locationID,
	}, nil
}

// Available returns the amount sellable right now: quantity minus holds.
func (s *StockLevel) Available() int64 {
	return s.Quantity - s.ReservedQuantity
}

// ApplyDelta is the single mutation primitive for quantity-on-hand. It applies
// a signed delta, bumps the version, and returns the movement record that must
// be appended in the same database transaction as the level write.
//
// Sales debit Quantity directly, not Available: a hold only matters when
// claiming stock for a new order, never when fulfilling one.
func (s *StockLevel) ApplyDelta(delta int64, movementType MovementType, reference string, performedBy uuid.UUID) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Invalid movement type")
	}
	if delta == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Delta cannot be zero")
	}

	previous := s.Quantity
	next := previous + delta
	if next < 0 {
		return nil, shared.NewDomainError(
			shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for product %s at location %s: have %d, need %d more",
				s.ProductID, s.LocationID, previous, -next),
		)
	}
	if s.ReservedQuantity > next {
		return nil, shared.NewDomainError(
			shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for product %s at location %s: %d units are reserved",
				s.ProductID, s.LocationID, s.ReservedQuantity),
		)
	}

	s.Quantity = next
	if movementType == MovementTypeCountAdjustment {
		now := time.Now()
		s.LastCountDate = &now
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	movement, err := NewStockMovement(
		s.TenantID, s.ID, s.ProductID, s.LocationID,
		movementType, delta, previous, next, reference, performedBy,
	)
	if err != nil {
		return nil, err
	}

	s.AddDomainEvent(NewStockChangedEvent(s, movement))
	if s.MinThreshold > 0 && s.Quantity <= s.MinThreshold {
		s.AddDomainEvent(NewStockBelowThresholdEvent(s))
	}

	return movement, nil
}

// Reserve claims a slice of available stock ahead of a sale being finalized.
// It increases ReservedQuantity without changing Quantity and without
// appending a movement: a reservation is a hold, not a stock movement.
func (s *StockLevel) Reserve(qty int64) error {
	if qty <= 0 {
		return shared.NewDomainError(shared.CodeValidationError, "Reservation quantity must be positive")
	}
	if qty > s.Available() {
		return shared.NewDomainError(
			shared.CodeInsufficientAvailable,
			fmt.Sprintf("Insufficient available stock for product %s at location %s: available %d, requested %d",
				s.ProductID, s.LocationID, s.Available(), qty),
		)
	}
	s.ReservedQuantity += qty
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Release returns held stock to the available pool. Over-release is clamped to
// the current reserved quantity rather than treated as an error, so retried
// release calls stay idempotent. Returns the quantity actually released.
func (s *StockLevel) Release(qty int64) (int64, error) {
	if qty <= 0 {
		return 0, shared.NewDomainError(shared.CodeValidationError, "Release quantity must be positive")
	}
	released := min(qty, s.ReservedQuantity)
	if released == 0 {
		return 0, nil
	}
	s.ReservedQuantity -= released
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return released, nil
}

// SetThresholds updates min/max thresholds and reorder parameters
func (s *StockLevel) SetThresholds(minThreshold, maxThreshold, reorderPoint, reorderQty int64) error {
	if minThreshold < 0 || maxThreshold < 0 || reorderPoint < 0 || reorderQty < 0 {
		return shared.NewDomainError(shared.CodeValidationError, "Thresholds cannot be negative")
	}
	if maxThreshold > 0 && minThreshold > maxThreshold {
		return shared.NewDomainError(shared.CodeValidationError, "Minimum threshold cannot exceed maximum threshold")
	}
	s.MinThreshold = minThreshold
	s.MaxThreshold = maxThreshold
	s.ReorderPoint = reorderPoint
	s.ReorderQuantity = reorderQty
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// IsBelowMinimum returns true if quantity is at or below the minimum threshold
func (s *StockLevel) IsBelowMinimum() bool {
	return s.MinThreshold > 0 && s.Quantity <= s.MinThreshold
}

// IsOutOfStock returns true if there is no stock on hand
func (s *StockLevel) IsOutOfStock() bool {
	return s.Quantity == 0
}

// CanFulfill returns true if the available quantity covers the requested quantity
func (s *StockLevel) CanFulfill(qty int64) bool {
	return s.Available() >= qty
}
