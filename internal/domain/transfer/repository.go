package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// StockTransferRepository defines the interface for transfer persistence
type StockTransferRepository interface {
	// FindByIDForTenant finds a transfer with its items within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockTransfer, error)

	// FindAllForTenant finds transfers for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockTransfer, error)

	// CountForTenant counts transfers matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a transfer with its items
	Save(ctx context.Context, t *StockTransfer) error
}
