package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// ErrOptimisticLock is returned by SaveWithLock when the row version moved
// underneath the caller. The application layer retries the whole operation a
// bounded number of times before surfacing CONCURRENT_MODIFICATION.
var ErrOptimisticLock = shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Stock level was modified by another transaction")

// StockLevelRepository defines the interface for stock level persistence
type StockLevelRepository interface {
	// FindByID finds a stock level by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockLevel, error)

	// FindByProductAndLocation finds the unique stock level for a product-location pair
	FindByProductAndLocation(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*StockLevel, error)

	// FindAllForTenant finds stock levels for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// FindBelowMinimum finds levels at or below their minimum threshold
	FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// CountForTenant counts stock levels matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// GetOrCreate gets the existing stock level or lazily creates a zero row
	GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*StockLevel, error)

	// Save creates or updates a stock level without a version check
	Save(ctx context.Context, level *StockLevel) error

	// SaveWithLock persists the level conditioned on the version being
	// unchanged since the read; returns ErrOptimisticLock on conflict
	SaveWithLock(ctx context.Context, level *StockLevel) error
}

// StockMovementRepository defines the interface for the append-only movement journal
type StockMovementRepository interface {
	// Create appends a movement (no update or delete is ever allowed)
	Create(ctx context.Context, movement *StockMovement) error

	// FindForTenant finds movements for a tenant with filtering
	FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByStockLevel finds all movements for a stock level, oldest first.
	// Replaying the deltas from zero must reproduce the current quantity.
	FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID) ([]StockMovement, error)

	// FindByReference finds movements carrying a reference id
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) ([]StockMovement, error)

	// CountForTenant counts movements matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// ReservationRepository defines the interface for reservation hold records
type ReservationRepository interface {
	// Create persists a new reservation
	Create(ctx context.Context, reservation *Reservation) error

	// Save updates a reservation (release bookkeeping)
	Save(ctx context.Context, reservation *Reservation) error

	// FindActiveByReference finds unreleased reservations for a reference
	FindActiveByReference(ctx context.Context, tenantID uuid.UUID, reference string) ([]Reservation, error)

	// FindExpired finds unreleased reservations whose expiry has passed
	FindExpired(ctx context.Context, asOf time.Time) ([]Reservation, error)
}
