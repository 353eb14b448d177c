package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// TransferStatus represents the status of a stock transfer
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusApproved  TransferStatus = "APPROVED"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusRejected  TransferStatus = "REJECTED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusApproved, TransferStatusCompleted,
		TransferStatusRejected, TransferStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that permit no further transitions
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusCompleted, TransferStatusRejected, TransferStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusPending:
		return target == TransferStatusApproved ||
			target == TransferStatusCompleted ||
			target == TransferStatusRejected ||
			target == TransferStatusCancelled
	case TransferStatusApproved:
		return target == TransferStatusCompleted || target == TransferStatusCancelled
	}
	return false
}

// StockTransferItem is one product line within a transfer
type StockTransferItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransferID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null"`
	RequestedQty int64     `gorm:"not null"`
	ApprovedQty  int64     `gorm:"not null;default:0"`
	ReceivedQty  int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (StockTransferItem) TableName() string {
	return "stock_transfer_items"
}

// StockTransfer moves stock between two locations of the same tenant under a
// multi-step approval state machine. Approval applies the TRANSFER_OUT and
// TRANSFER_IN deltas for every item all-or-nothing; there is no IN_TRANSIT
// holding window in this design.
type StockTransfer struct {
	shared.TenantAggregateRoot
	FromLocationID uuid.UUID           `gorm:"type:uuid;not null;index"`
	ToLocationID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status         TransferStatus      `gorm:"type:varchar(20);not null;index"`
	RequestedBy    uuid.UUID           `gorm:"type:uuid;not null"`
	ApprovedBy     *uuid.UUID          `gorm:"type:uuid"`
	ProcessedAt    *time.Time          `gorm:"type:timestamptz"`
	Note           string              `gorm:"type:varchar(500)"`
	Items          []StockTransferItem `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (StockTransfer) TableName() string {
	return "stock_transfers"
}

// NewStockTransfer creates a transfer in PENDING state
func NewStockTransfer(tenantID, fromLocationID, toLocationID, requestedBy uuid.UUID, note string) (*StockTransfer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if fromLocationID == uuid.Nil || toLocationID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Both locations are required")
	}
	if fromLocationID == toLocationID {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Source and destination locations must differ")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Requesting user is required")
	}
	return &StockTransfer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FromLocationID:      fromLocationID,
		ToLocationID:        toLocationID,
		Status:              TransferStatusPending,
		RequestedBy:         requestedBy,
		Note:                note,
		Items:               make([]StockTransferItem, 0),
	}, nil
}

// AddItem adds a product line to a pending transfer
func (t *StockTransfer) AddItem(productID uuid.UUID, requestedQty int64) error {
	if t.Status != TransferStatusPending {
		return shared.ErrInvalidState
	}
	if productID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationError, "Product ID cannot be empty")
	}
	if requestedQty <= 0 {
		return shared.NewDomainError(shared.CodeValidationError, "Requested quantity must be positive")
	}
	for _, item := range t.Items {
		if item.ProductID == productID {
			return shared.NewDomainError(shared.CodeValidationError, "Duplicate product in transfer")
		}
	}
	now := time.Now()
	t.Items = append(t.Items, StockTransferItem{
		ID:           uuid.New(),
		TransferID:   t.ID,
		ProductID:    productID,
		RequestedQty: requestedQty,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	t.UpdatedAt = now
	return nil
}

// Complete marks the transfer COMPLETED after all deltas were applied.
// Every item's approved and received quantities equal the requested quantity;
// approval completes the move immediately in this design.
func (t *StockTransfer) Complete(approvedBy uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusCompleted) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	for i := range t.Items {
		t.Items[i].ApprovedQty = t.Items[i].RequestedQty
		t.Items[i].ReceivedQty = t.Items[i].RequestedQty
		t.Items[i].UpdatedAt = now
	}
	t.Status = TransferStatusCompleted
	t.ApprovedBy = &approvedBy
	t.ProcessedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	t.AddDomainEvent(NewTransferCompletedEvent(t))
	return nil
}

// Reject marks the transfer REJECTED with no stock change
func (t *StockTransfer) Reject(rejectedBy uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusRejected) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	t.Status = TransferStatusRejected
	t.ApprovedBy = &rejectedBy
	t.ProcessedAt = &now
	if reason != "" {
		t.Note = reason
	}
	t.UpdatedAt = now
	t.IncrementVersion()
	t.AddDomainEvent(NewTransferRejectedEvent(t, reason))
	return nil
}

// Cancel marks the transfer CANCELLED
func (t *StockTransfer) Cancel(cancelledBy uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	t.Status = TransferStatusCancelled
	t.ApprovedBy = &cancelledBy
	t.ProcessedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}
