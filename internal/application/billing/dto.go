package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one line of a sale
type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"`
}

// CreateTransactionRequest opens a PENDING sale transaction and debits stock
type CreateTransactionRequest struct {
	LocationID    uuid.UUID         `json:"location_id" binding:"required"`
	PaymentMethod string            `json:"payment_method"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PaymentRequest settles a pending transaction. Amount must equal the
// transaction total exactly.
type PaymentRequest struct {
	TransactionID uuid.UUID       `json:"transaction_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Method        string          `json:"method"`
}

// RefundItemRequest is one returned line of a refund
type RefundItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}

// RefundRequest returns sold items against a completed transaction
type RefundRequest struct {
	TransactionID uuid.UUID           `json:"transaction_id" binding:"required"`
	Reason        string              `json:"reason"`
	Items         []RefundItemRequest `json:"items" binding:"required,min=1,dive"`
}

// QuickSaleRequest creates and pays a transaction in one call
type QuickSaleRequest struct {
	LocationID    uuid.UUID         `json:"location_id" binding:"required"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// TransactionItemResponse is the API representation of a sold line
type TransactionItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int64           `json:"quantity"`
	RefundedQty int64           `json:"refunded_qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// TransactionResponse is the API representation of a transaction
type TransactionResponse struct {
	ID             uuid.UUID                 `json:"id"`
	LocationID     uuid.UUID                 `json:"location_id"`
	StaffID        uuid.UUID                 `json:"staff_id"`
	Status         string                    `json:"status"`
	PaymentStatus  string                    `json:"payment_status"`
	PaymentMethod  string                    `json:"payment_method,omitempty"`
	Subtotal       decimal.Decimal           `json:"subtotal"`
	TaxAmount      decimal.Decimal           `json:"tax_amount"`
	DiscountAmount decimal.Decimal           `json:"discount_amount"`
	TotalAmount    decimal.Decimal           `json:"total_amount"`
	PaidAt         *time.Time                `json:"paid_at,omitempty"`
	Items          []TransactionItemResponse `json:"items"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// ToTransactionResponse converts a domain Transaction to its API representation
func ToTransactionResponse(t *billing.Transaction) TransactionResponse {
	items := make([]TransactionItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, TransactionItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			RefundedQty: item.RefundedQty,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			LineTotal:   item.LineTotal,
		})
	}
	return TransactionResponse{
		ID:             t.ID,
		LocationID:     t.LocationID,
		StaffID:        t.StaffID,
		Status:         t.Status.String(),
		PaymentStatus:  string(t.PaymentStatus),
		PaymentMethod:  t.PaymentMethod,
		Subtotal:       t.Subtotal,
		TaxAmount:      t.TaxAmount,
		DiscountAmount: t.DiscountAmount,
		TotalAmount:    t.TotalAmount,
		PaidAt:         t.PaidAt,
		Items:          items,
		CreatedAt:      t.CreatedAt,
	}
}

// RefundItemResponse is the API representation of a refunded line
type RefundItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// RefundResponse is the API representation of a refund
type RefundResponse struct {
	ID            uuid.UUID            `json:"id"`
	TransactionID uuid.UUID            `json:"transaction_id"`
	Status        string               `json:"status"`
	Reason        string               `json:"reason,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	ProcessedAt   *time.Time           `json:"processed_at,omitempty"`
	Items         []RefundItemResponse `json:"items"`
	Transaction   *TransactionResponse `json:"transaction,omitempty"`
}

// ToRefundResponse converts a domain Refund to its API representation
func ToRefundResponse(r *billing.Refund) RefundResponse {
	items := make([]RefundItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, RefundItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Amount:    item.Amount,
		})
	}
	return RefundResponse{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Status:        string(r.Status),
		Reason:        r.Reason,
		TotalAmount:   r.TotalAmount,
		ProcessedAt:   r.ProcessedAt,
		Items:         items,
	}
}

// TransactionListFilter narrows transaction queries
type TransactionListFilter struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	LocationID *uuid.UUID `form:"location_id"`
	Status     string     `form:"status"`
}
