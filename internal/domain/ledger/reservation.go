package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Reservation records one hold placed against a StockLevel. The authoritative
// reserved quantity lives on the StockLevel itself; these rows exist so holds
// can be released by reference and swept when their owner never comes back.
type Reservation struct {
	shared.BaseEntity
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	StockLevelID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null"`
	LocationID   uuid.UUID `gorm:"type:uuid;not null"`
	Quantity     int64     `gorm:"not null"`
	Reference    string    `gorm:"type:varchar(100);not null;index"`
	ExpireAt     time.Time `gorm:"type:timestamptz;not null;index"`
	Released     bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Reservation) TableName() string {
	return "stock_reservations"
}

// NewReservation creates a new reservation record
func NewReservation(tenantID, stockLevelID, productID, locationID uuid.UUID, qty int64, reference string, expireAt time.Time) *Reservation {
	return &Reservation{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		StockLevelID: stockLevelID,
		ProductID:    productID,
		LocationID:   locationID,
		Quantity:     qty,
		Reference:    reference,
		ExpireAt:     expireAt,
		Released:     false,
	}
}

// MarkReleased marks the reservation as released
func (r *Reservation) MarkReleased() {
	r.Released = true
	r.UpdatedAt = time.Now()
}

// Consume takes up to qty from the hold, clamped to what remains, and marks
// the row released only once nothing is left. A partially consumed row keeps
// its remainder visible to the expiry sweep. Returns the amount consumed.
func (r *Reservation) Consume(qty int64) int64 {
	if qty <= 0 || r.Released {
		return 0
	}
	consumed := min(qty, r.Quantity)
	r.Quantity -= consumed
	if r.Quantity == 0 {
		r.Released = true
	}
	r.UpdatedAt = time.Now()
	return consumed
}

// IsExpired returns true if the reservation has passed its expiry
func (r *Reservation) IsExpired() bool {
	return time.Now().After(r.ExpireAt)
}
