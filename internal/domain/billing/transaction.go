package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the status of a sale transaction
type TransactionStatus string

const (
	TransactionStatusPending           TransactionStatus = "PENDING"
	TransactionStatusCompleted         TransactionStatus = "COMPLETED"
	TransactionStatusCancelled         TransactionStatus = "CANCELLED"
	TransactionStatusRefunded          TransactionStatus = "REFUNDED"
	TransactionStatusPartiallyRefunded TransactionStatus = "PARTIALLY_REFUNDED"
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled,
		TransactionStatusRefunded, TransactionStatusPartiallyRefunded:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// PaymentStatus represents the payment state of a transaction
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// TransactionItem is one sold line within a transaction
type TransactionItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity      int64           `gorm:"not null"`
	RefundedQty   int64           `gorm:"not null;default:0"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (TransactionItem) TableName() string {
	return "transaction_items"
}

// Transaction is a point-of-sale transaction. It is created PENDING and
// becomes COMPLETED only after the stock debit and the payment both succeed.
type Transaction struct {
	shared.TenantAggregateRoot
	LocationID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	StaffID        uuid.UUID         `gorm:"type:uuid;not null"`
	Status         TransactionStatus `gorm:"type:varchar(30);not null;index"`
	PaymentStatus  PaymentStatus     `gorm:"type:varchar(20);not null"`
	PaymentMethod  string            `gorm:"type:varchar(30)"`
	Subtotal       decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	TaxAmount      decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	TotalAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PaidAt         *time.Time        `gorm:"type:timestamptz"`
	Items          []TransactionItem `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransactionItem builds a line item with its extended total
func NewTransactionItem(productID uuid.UUID, quantity int64, unitPrice, discount decimal.Decimal) (*TransactionItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Discount cannot be negative")
	}
	lineTotal := unitPrice.Mul(decimal.NewFromInt(quantity)).Sub(discount)
	if lineTotal.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Discount cannot exceed line amount")
	}
	now := time.Now()
	return &TransactionItem{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Discount:  discount,
		LineTotal: lineTotal,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewTransaction creates a PENDING transaction and computes its totals from
// the line items and the location tax rate.
func NewTransaction(tenantID, locationID, staffID uuid.UUID, items []TransactionItem, paymentMethod string, taxRate decimal.Decimal) (*Transaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Location ID cannot be empty")
	}
	if staffID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Staff ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Transaction must have at least one item")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tax rate cannot be negative")
	}

	tx := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          locationID,
		StaffID:             staffID,
		Status:              TransactionStatusPending,
		PaymentStatus:       PaymentStatusPending,
		PaymentMethod:       paymentMethod,
		Items:               make([]TransactionItem, 0, len(items)),
	}

	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		item.TransactionID = tx.ID
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
		discount = discount.Add(item.Discount)
		tx.Items = append(tx.Items, item)
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Round(4)

	tx.Subtotal = subtotal
	tx.DiscountAmount = discount
	tx.TaxAmount = tax
	tx.TotalAmount = taxable.Add(tax)
	return tx, nil
}

// CompletePayment records a successful payment. The amount must match the
// transaction total exactly.
func (t *Transaction) CompletePayment(method string, amount decimal.Decimal) error {
	if t.Status != TransactionStatusPending {
		return shared.ErrInvalidState
	}
	if !amount.Equal(t.TotalAmount) {
		return shared.ErrAmountMismatch
	}
	now := time.Now()
	t.Status = TransactionStatusCompleted
	t.PaymentStatus = PaymentStatusCompleted
	if method != "" {
		t.PaymentMethod = method
	}
	t.PaidAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionCompletedEvent(t))
	return nil
}

// Cancel marks a pending transaction CANCELLED
func (t *Transaction) Cancel() error {
	if t.Status != TransactionStatusPending {
		return shared.ErrInvalidState
	}
	t.Status = TransactionStatusCancelled
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// ItemByProduct returns the line item for a product, or nil
func (t *Transaction) ItemByProduct(productID uuid.UUID) *TransactionItem {
	for i := range t.Items {
		if t.Items[i].ProductID == productID {
			return &t.Items[i]
		}
	}
	return nil
}

// RecordRefund books refunded quantities against the line items and moves the
// transaction to REFUNDED or PARTIALLY_REFUNDED depending on whether every
// sold unit has now been returned.
func (t *Transaction) RecordRefund(items map[uuid.UUID]int64) error {
	if t.Status != TransactionStatusCompleted && t.Status != TransactionStatusPartiallyRefunded {
		return shared.ErrInvalidState
	}
	// Validate before mutating
	for productID, qty := range items {
		if qty <= 0 {
			return shared.NewDomainError(shared.CodeValidationError, "Refund quantity must be positive")
		}
		line := t.ItemByProduct(productID)
		if line == nil {
			return shared.NewDomainError(shared.CodeValidationError, "Refunded product was not part of this transaction")
		}
		if line.RefundedQty+qty > line.Quantity {
			return shared.NewDomainError(shared.CodeValidationError, "Refund quantity exceeds sold quantity")
		}
	}

	now := time.Now()
	for productID, qty := range items {
		line := t.ItemByProduct(productID)
		line.RefundedQty += qty
		line.UpdatedAt = now
	}

	fullyRefunded := true
	for i := range t.Items {
		if t.Items[i].RefundedQty < t.Items[i].Quantity {
			fullyRefunded = false
			break
		}
	}
	if fullyRefunded {
		t.Status = TransactionStatusRefunded
		t.PaymentStatus = PaymentStatusRefunded
	} else {
		t.Status = TransactionStatusPartiallyRefunded
	}
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}
