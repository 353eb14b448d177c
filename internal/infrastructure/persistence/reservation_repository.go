package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Create persists a new reservation
func (r *GormReservationRepository) Create(ctx context.Context, reservation *ledger.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// Save updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, reservation *ledger.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

// FindActiveByReference finds unreleased reservations for a reference
func (r *GormReservationRepository) FindActiveByReference(ctx context.Context, tenantID uuid.UUID, reference string) ([]ledger.Reservation, error) {
	var reservations []ledger.Reservation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ? AND released = false", tenantID, reference).
		Order("created_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// FindExpired finds unreleased reservations whose expiry has passed
func (r *GormReservationRepository) FindExpired(ctx context.Context, asOf time.Time) ([]ledger.Reservation, error) {
	var reservations []ledger.Reservation
	if err := r.db.WithContext(ctx).
		Where("released = false AND expire_at <= ?", asOf).
		Order("expire_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// Ensure GormReservationRepository implements ReservationRepository
var _ ledger.ReservationRepository = (*GormReservationRepository)(nil)
