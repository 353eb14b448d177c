package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// MovementType is the closed set of reasons a StockLevel quantity can change.
// Reservations are deliberately absent: a hold is not a movement.
type MovementType string

const (
	MovementTypeSale            MovementType = "SALE"
	MovementTypePurchase        MovementType = "PURCHASE"
	MovementTypeAdjustment      MovementType = "ADJUSTMENT"
	MovementTypeTransferIn      MovementType = "TRANSFER_IN"
	MovementTypeTransferOut     MovementType = "TRANSFER_OUT"
	MovementTypeReturn          MovementType = "RETURN"
	MovementTypeDamage          MovementType = "DAMAGE"
	MovementTypeTheft           MovementType = "THEFT"
	MovementTypeExpired         MovementType = "EXPIRED"
	MovementTypeCountAdjustment MovementType = "COUNT_ADJUSTMENT"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale,
		MovementTypePurchase,
		MovementTypeAdjustment,
		MovementTypeTransferIn,
		MovementTypeTransferOut,
		MovementTypeReturn,
		MovementTypeDamage,
		MovementTypeTheft,
		MovementTypeExpired,
		MovementTypeCountAdjustment:
		return true
	}
	return false
}

// StockMovement is one immutable, signed change to a StockLevel's quantity.
// Rows are append-only; corrections are made with new movements, never edits.
// Invariant: PreviousQty + Delta == NewQty, and NewQty equals the StockLevel's
// quantity as of the write that produced this row.
type StockMovement struct {
	shared.BaseEntity
	TenantID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_movement_tenant_time,priority:1"`
	StockLevelID uuid.UUID    `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	LocationID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	MovementType MovementType `gorm:"type:varchar(30);not null;index"`
	Delta        int64        `gorm:"not null"`
	PreviousQty  int64        `gorm:"not null"`
	NewQty       int64        `gorm:"not null"`
	Reference    string       `gorm:"type:varchar(100);index"` // transaction/transfer/refund id
	PerformedBy  uuid.UUID    `gorm:"type:uuid"`
	OccurredAt   time.Time    `gorm:"type:timestamptz;not null;index:idx_movement_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates an immutable movement record. The previous/new
// quantities must come from the StockLevel state captured under the same
// optimistic-lock write.
func NewStockMovement(
	tenantID, stockLevelID, productID, locationID uuid.UUID,
	movementType MovementType,
	delta, previousQty, newQty int64,
	reference string,
	performedBy uuid.UUID,
) (*StockMovement, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if stockLevelID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Stock level ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Invalid movement type")
	}
	if delta == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Delta cannot be zero")
	}
	if previousQty+delta != newQty {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Movement quantities are inconsistent")
	}

	return &StockMovement{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		StockLevelID: stockLevelID,
		ProductID:    productID,
		LocationID:   locationID,
		MovementType: movementType,
		Delta:        delta,
		PreviousQty:  previousQty,
		NewQty:       newQty,
		Reference:    reference,
		PerformedBy:  performedBy,
		OccurredAt:   time.Now(),
	}, nil
}
