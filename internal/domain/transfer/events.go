package transfer

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Event types emitted by the transfer engine
const (
	EventTypeTransferCompleted = "transfer.completed"
	EventTypeTransferRejected  = "transfer.rejected"
)

// TransferCompletedEvent is emitted when a transfer's deltas were applied
type TransferCompletedEvent struct {
	shared.BaseDomainEvent
	FromLocationID uuid.UUID `json:"from_location_id"`
	ToLocationID   uuid.UUID `json:"to_location_id"`
	ItemCount      int       `json:"item_count"`
}

// NewTransferCompletedEvent creates a new TransferCompletedEvent
func NewTransferCompletedEvent(t *StockTransfer) *TransferCompletedEvent {
	return &TransferCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCompleted, "StockTransfer", t.ID, t.TenantID),
		FromLocationID:  t.FromLocationID,
		ToLocationID:    t.ToLocationID,
		ItemCount:       len(t.Items),
	}
}

// TransferRejectedEvent is emitted when a transfer is rejected
type TransferRejectedEvent struct {
	shared.BaseDomainEvent
	Reason string `json:"reason"`
}

// NewTransferRejectedEvent creates a new TransferRejectedEvent
func NewTransferRejectedEvent(t *StockTransfer, reason string) *TransferRejectedEvent {
	return &TransferRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferRejected, "StockTransfer", t.ID, t.TenantID),
		Reason:          reason,
	}
}
