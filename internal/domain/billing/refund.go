package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RefundStatus represents the status of a refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusRejected  RefundStatus = "REJECTED"
	RefundStatusCompleted RefundStatus = "COMPLETED"
)

// CanTransitionTo checks if the status can transition to the target status
func (s RefundStatus) CanTransitionTo(target RefundStatus) bool {
	switch s {
	case RefundStatusPending:
		return target == RefundStatusApproved || target == RefundStatusRejected
	case RefundStatusApproved:
		return target == RefundStatusCompleted
	}
	return false
}

// RefundItem is one returned line within a refund
type RefundItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RefundID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int64           `gorm:"not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (RefundItem) TableName() string {
	return "refund_items"
}

// Refund re-credits stock and money against a completed transaction
type Refund struct {
	shared.TenantAggregateRoot
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null"`
	RequestedBy   uuid.UUID       `gorm:"type:uuid;not null"`
	Status        RefundStatus    `gorm:"type:varchar(20);not null;index"`
	Reason        string          `gorm:"type:varchar(500)"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ProcessedAt   *time.Time      `gorm:"type:timestamptz"`
	Items         []RefundItem    `gorm:"foreignKey:RefundID;references:ID"`
}

// TableName returns the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}

// NewRefund creates a refund in PENDING state
func NewRefund(tenantID, transactionID, locationID, requestedBy uuid.UUID, reason string) (*Refund, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if transactionID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Transaction ID cannot be empty")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Requesting user is required")
	}
	return &Refund{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TransactionID:       transactionID,
		LocationID:          locationID,
		RequestedBy:         requestedBy,
		Status:              RefundStatusPending,
		Reason:              reason,
		TotalAmount:         decimal.Zero,
		Items:               make([]RefundItem, 0),
	}, nil
}

// AddItem adds a returned line to a pending refund
func (r *Refund) AddItem(productID uuid.UUID, quantity int64, amount decimal.Decimal) error {
	if r.Status != RefundStatusPending {
		return shared.ErrInvalidState
	}
	if quantity <= 0 {
		return shared.NewDomainError(shared.CodeValidationError, "Refund quantity must be positive")
	}
	if amount.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationError, "Refund amount cannot be negative")
	}
	r.Items = append(r.Items, RefundItem{
		ID:        uuid.New(),
		RefundID:  r.ID,
		ProductID: productID,
		Quantity:  quantity,
		Amount:    amount,
		CreatedAt: time.Now(),
	})
	r.TotalAmount = r.TotalAmount.Add(amount)
	r.UpdatedAt = time.Now()
	return nil
}

// Approve moves the refund to APPROVED
func (r *Refund) Approve() error {
	if !r.Status.CanTransitionTo(RefundStatusApproved) {
		return shared.ErrInvalidState
	}
	r.Status = RefundStatusApproved
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// Reject moves the refund to REJECTED
func (r *Refund) Reject(reason string) error {
	if !r.Status.CanTransitionTo(RefundStatusRejected) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	r.Status = RefundStatusRejected
	if reason != "" {
		r.Reason = reason
	}
	r.ProcessedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// Complete marks the refund COMPLETED after the stock was re-credited
func (r *Refund) Complete() error {
	if !r.Status.CanTransitionTo(RefundStatusCompleted) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	r.Status = RefundStatusCompleted
	r.ProcessedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewRefundCompletedEvent(r))
	return nil
}
