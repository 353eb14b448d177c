package billing

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types emitted by the transaction engine
const (
	EventTypeTransactionCompleted = "billing.transaction_completed"
	EventTypeRefundCompleted      = "billing.refund_completed"
)

// TransactionCompletedEvent is emitted when payment succeeds
type TransactionCompletedEvent struct {
	shared.BaseDomainEvent
	LocationID  uuid.UUID       `json:"location_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// NewTransactionCompletedEvent creates a new TransactionCompletedEvent
func NewTransactionCompletedEvent(t *Transaction) *TransactionCompletedEvent {
	return &TransactionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCompleted, "Transaction", t.ID, t.TenantID),
		LocationID:      t.LocationID,
		TotalAmount:     t.TotalAmount,
		ItemCount:       len(t.Items),
	}
}

// RefundCompletedEvent is emitted when stock has been re-credited for a refund
type RefundCompletedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewRefundCompletedEvent creates a new RefundCompletedEvent
func NewRefundCompletedEvent(r *Refund) *RefundCompletedEvent {
	return &RefundCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundCompleted, "Refund", r.ID, r.TenantID),
		TransactionID:   r.TransactionID,
		TotalAmount:     r.TotalAmount,
	}
}
