package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Tenant is the root of all ownership chains. Its identity is immutable once created.
type Tenant struct {
	shared.BaseAggregateRoot
	Name   string `gorm:"type:varchar(255);not null"`
	Code   string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new tenant
func NewTenant(name, code string) (*Tenant, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant code cannot be empty")
	}
	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Code:              code,
		Active:            true,
	}, nil
}

// Deactivate soft-deactivates the tenant
func (t *Tenant) Deactivate() {
	t.Active = false
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}
