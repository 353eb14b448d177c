package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/transfer"
)

// TransferItemRequest is one product line in a transfer request
type TransferItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}

// CreateTransferRequest creates a new pending transfer
type CreateTransferRequest struct {
	FromLocationID uuid.UUID             `json:"from_location_id" binding:"required"`
	ToLocationID   uuid.UUID             `json:"to_location_id" binding:"required"`
	Note           string                `json:"note"`
	Items          []TransferItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Transfer process actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ProcessTransferRequest approves or rejects a pending transfer
type ProcessTransferRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Reason string `json:"reason"`
}

// TransferItemResponse is the API representation of a transfer line
type TransferItemResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	RequestedQty int64     `json:"requested_qty"`
	ApprovedQty  int64     `json:"approved_qty"`
	ReceivedQty  int64     `json:"received_qty"`
}

// TransferResponse is the API representation of a transfer
type TransferResponse struct {
	ID             uuid.UUID              `json:"id"`
	FromLocationID uuid.UUID              `json:"from_location_id"`
	ToLocationID   uuid.UUID              `json:"to_location_id"`
	Status         string                 `json:"status"`
	RequestedBy    uuid.UUID              `json:"requested_by"`
	ApprovedBy     *uuid.UUID             `json:"approved_by,omitempty"`
	ProcessedAt    *time.Time             `json:"processed_at,omitempty"`
	Note           string                 `json:"note,omitempty"`
	Items          []TransferItemResponse `json:"items"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ToTransferResponse converts a domain StockTransfer to its API representation
func ToTransferResponse(t *transfer.StockTransfer) TransferResponse {
	items := make([]TransferItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, TransferItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			RequestedQty: item.RequestedQty,
			ApprovedQty:  item.ApprovedQty,
			ReceivedQty:  item.ReceivedQty,
		})
	}
	return TransferResponse{
		ID:             t.ID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Status:         t.Status.String(),
		RequestedBy:    t.RequestedBy,
		ApprovedBy:     t.ApprovedBy,
		ProcessedAt:    t.ProcessedAt,
		Note:           t.Note,
		Items:          items,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// TransferListFilter narrows transfer queries
type TransferListFilter struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	Status     string     `form:"status"`
	LocationID *uuid.UUID `form:"location_id"`
}
