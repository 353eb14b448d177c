package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// TransactionRepository defines the interface for transaction persistence
type TransactionRepository interface {
	// FindByIDForTenant finds a transaction with its items within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)

	// FindAllForTenant finds transactions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Transaction, error)

	// CountForTenant counts transactions matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a transaction with its items
	Save(ctx context.Context, t *Transaction) error
}

// RefundRepository defines the interface for refund persistence
type RefundRepository interface {
	// FindByIDForTenant finds a refund with its items within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Refund, error)

	// FindByTransaction finds all refunds for a transaction
	FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]Refund, error)

	// Save creates or updates a refund with its items
	Save(ctx context.Context, r *Refund) error
}
