package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. SKU is unique per tenant catalog.
type Product struct {
	shared.TenantAggregateRoot
	SKU      string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Name     string          `gorm:"type:varchar(255);not null"`
	Category string          `gorm:"type:varchar(100);index"`
	Price    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Cost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active   bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product
func NewProduct(tenantID uuid.UUID, sku, name, category string, price, cost decimal.Decimal) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Tenant ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Product name cannot be empty")
	}
	if price.IsNegative() || cost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Price and cost cannot be negative")
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		Category:            category,
		Price:               price,
		Cost:                cost,
		Active:              true,
	}, nil
}

// UpdatePricing updates price and cost
func (p *Product) UpdatePricing(price, cost decimal.Decimal) error {
	if price.IsNegative() || cost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationError, "Price and cost cannot be negative")
	}
	p.Price = price
	p.Cost = cost
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Deactivate soft-deactivates the product
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Product, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)
	Save(ctx context.Context, product *Product) error
}
