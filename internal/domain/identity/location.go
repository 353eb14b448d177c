package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Location is a physical stock-keeping site belonging to exactly one tenant.
// Locations are soft-deactivated, never hard-deleted while stock exists.
type Location struct {
	shared.TenantAggregateRoot
	Name    string          `gorm:"type:varchar(255);not null"`
	Code    string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_location_tenant_code,priority:2"`
	Address string          `gorm:"type:varchar(500)"`
	TaxRate decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0"` // e.g. 0.0825 for 8.25%
	Active  bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "locations"
}

// NewLocation creates a new location for a tenant
func NewLocation(tenantID uuid.UUID, name, code string, taxRate decimal.Decimal) (*Location, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Location name cannot be empty")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tax rate cannot be negative")
	}
	return &Location{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Code:                code,
		TaxRate:             taxRate,
		Active:              true,
	}, nil
}

// Deactivate soft-deactivates the location
func (l *Location) Deactivate() {
	l.Active = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// LocationRepository defines the interface for location persistence.
//
// FindByIDForTenant is the ownership check used by every ledger operation: a
// location that exists under a different tenant is indistinguishable from a
// location that does not exist at all.
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Location, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Location, error)
	Save(ctx context.Context, location *Location) error
}
