package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/retailops/backend/internal/domain/ledger"
	"go.uber.org/zap"
)

// ReservationExpirationService reclaims holds whose owner never came back.
// A sweep releases each expired reservation's quantity back to the available
// pool, clamped against the level's current reserved quantity so it composes
// with manual releases that already happened.
type ReservationExpirationService struct {
	scope           TransactionScope
	reservationRepo ledger.ReservationRepository
	stockLevelRepo  ledger.StockLevelRepository
	logger          *zap.Logger
}

// NewReservationExpirationService creates a new ReservationExpirationService
func NewReservationExpirationService(
	scope TransactionScope,
	reservationRepo ledger.ReservationRepository,
	stockLevelRepo ledger.StockLevelRepository,
	logger *zap.Logger,
) *ReservationExpirationService {
	return &ReservationExpirationService{
		scope:           scope,
		reservationRepo: reservationRepo,
		stockLevelRepo:  stockLevelRepo,
		logger:          logger,
	}
}

// SweepStats contains statistics about one expiry sweep
type SweepStats struct {
	TotalExpired int       `json:"total_expired"`
	Released     int       `json:"released"`
	Failed       int       `json:"failed"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// ReleaseExpired finds and releases all expired reservations
func (s *ReservationExpirationService) ReleaseExpired(ctx context.Context) (*SweepStats, error) {
	stats := &SweepStats{ProcessedAt: time.Now()}

	expired, err := s.reservationRepo.FindExpired(ctx, stats.ProcessedAt)
	if err != nil {
		s.logger.Error("Failed to find expired reservations", zap.Error(err))
		return nil, err
	}

	stats.TotalExpired = len(expired)
	if stats.TotalExpired == 0 {
		s.logger.Debug("No expired reservations found")
		return stats, nil
	}

	s.logger.Info("Found expired reservations", zap.Int("count", stats.TotalExpired))

	for i := range expired {
		if err := s.releaseOne(ctx, &expired[i]); err != nil {
			s.logger.Error("Failed to release expired reservation",
				zap.String("reservation_id", expired[i].ID.String()),
				zap.String("reference", expired[i].Reference),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		stats.Released++
	}

	s.logger.Info("Completed reservation sweep",
		zap.Int("total", stats.TotalExpired),
		zap.Int("released", stats.Released),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// releaseOne releases a single expired reservation. If the stock level is
// gone the reservation is still marked released so the sweep does not pick
// it up forever.
func (s *ReservationExpirationService) releaseOne(ctx context.Context, reservation *ledger.Reservation) error {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		level, err := s.stockLevelRepo.FindByID(ctx, reservation.StockLevelID)
		if err != nil {
			s.logger.Warn("Stock level missing for expired reservation",
				zap.String("reservation_id", reservation.ID.String()),
				zap.String("stock_level_id", reservation.StockLevelID.String()),
				zap.Error(err),
			)
			reservation.MarkReleased()
			return s.reservationRepo.Save(ctx, reservation)
		}

		released, err := level.Release(reservation.Quantity)
		if err != nil {
			return err
		}
		reservation.MarkReleased()

		if released == 0 {
			return s.reservationRepo.Save(ctx, reservation)
		}

		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
				return err
			}
			return repos.ReservationRepo().Save(ctx, reservation)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		return err
	}
	return ledger.ErrOptimisticLock
}

// Run starts a periodic sweep loop that stops when the context is cancelled
func (s *ReservationExpirationService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Reservation expiry sweep started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reservation expiry sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.ReleaseExpired(ctx); err != nil {
				s.logger.Error("Reservation sweep failed", zap.Error(err))
			}
		}
	}
}
