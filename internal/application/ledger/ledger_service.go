package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/identity"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/shared"
)

const (
	// maxWriteAttempts bounds the optimistic-lock retry loop. Each attempt
	// re-reads the stock level, so losing the race simply means replaying the
	// mutation against the fresh row. After the last attempt the caller gets
	// CONCURRENT_MODIFICATION.
	maxWriteAttempts = 3

	// DefaultReservationTTL is how long a hold lives before the sweep
	// reclaims it, unless the request overrides it
	DefaultReservationTTL = 30 * time.Minute
)

// LedgerService orchestrates all stock level mutations and queries. Every
// operation resolves the target location within the caller tenant first; a
// location owned by another tenant fails exactly like a missing one.
type LedgerService struct {
	scope           TransactionScope
	stockLevelRepo  ledger.StockLevelRepository
	movementRepo    ledger.StockMovementRepository
	reservationRepo ledger.ReservationRepository
	locationRepo    identity.LocationRepository
	eventPublisher  shared.EventPublisher
	reservationTTL  time.Duration
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope TransactionScope,
	stockLevelRepo ledger.StockLevelRepository,
	movementRepo ledger.StockMovementRepository,
	reservationRepo ledger.ReservationRepository,
	locationRepo identity.LocationRepository,
) *LedgerService {
	return &LedgerService{
		scope:           scope,
		stockLevelRepo:  stockLevelRepo,
		movementRepo:    movementRepo,
		reservationRepo: reservationRepo,
		locationRepo:    locationRepo,
		reservationTTL:  DefaultReservationTTL,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReservationTTL overrides the default reservation lifetime
func (s *LedgerService) SetReservationTTL(ttl time.Duration) {
	if ttl > 0 {
		s.reservationTTL = ttl
	}
}

// checkLocation resolves the location within the caller tenant. A location
// that exists under a different tenant is reported with the same generic
// ACCESS_DENIED as one that does not exist at all.
func (s *LedgerService) checkLocation(ctx context.Context, tenantID, locationID uuid.UUID) error {
	location, err := s.locationRepo.FindByIDForTenant(ctx, tenantID, locationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrAccessDenied
		}
		return err
	}
	if !location.Active {
		return shared.NewDomainError(shared.CodeValidationError, "Location is deactivated")
	}
	return nil
}

// publishDomainEvents publishes pending events after a successful commit.
// Errors are swallowed by the bus; a replica that lags never fails a write.
func (s *LedgerService) publishDomainEvents(ctx context.Context, level *ledger.StockLevel) {
	if s.eventPublisher == nil {
		return
	}
	events := level.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	level.ClearDomainEvents()
}

// ApplyDelta adjusts one stock level by a signed delta and appends the
// matching journal entry in the same database transaction.
func (s *LedgerService) ApplyDelta(ctx context.Context, tenantID, performedBy uuid.UUID, req ApplyDeltaRequest) (*StockLevelResponse, error) {
	movementType := ledger.MovementType(req.MovementType)
	if !movementType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Invalid movement type")
	}
	if err := s.checkLocation(ctx, tenantID, req.LocationID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		level, err := s.stockLevelRepo.GetOrCreate(ctx, tenantID, req.ProductID, req.LocationID)
		if err != nil {
			return nil, err
		}

		movement, err := level.ApplyDelta(req.Delta, movementType, req.Reference, performedBy)
		if err != nil {
			return nil, err
		}

		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
				return err
			}
			return repos.MovementRepo().Create(ctx, movement)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publishDomainEvents(ctx, level)
		response := ToStockLevelResponse(level)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// SetQuantity sets one stock level to an absolute quantity. The write is
// journaled as the signed difference from the current quantity, so the
// movement history still replays to the new value.
func (s *LedgerService) SetQuantity(ctx context.Context, tenantID, performedBy uuid.UUID, req SetQuantityRequest) (*StockLevelResponse, error) {
	if req.Quantity < 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Quantity cannot be negative")
	}
	if err := s.checkLocation(ctx, tenantID, req.LocationID); err != nil {
		return nil, err
	}

	movementType := ledger.MovementTypeAdjustment
	if req.Counted {
		movementType = ledger.MovementTypeCountAdjustment
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		level, err := s.stockLevelRepo.GetOrCreate(ctx, tenantID, req.ProductID, req.LocationID)
		if err != nil {
			return nil, err
		}

		delta := req.Quantity - level.Quantity
		if delta == 0 {
			response := ToStockLevelResponse(level)
			return &response, nil
		}

		movement, err := level.ApplyDelta(delta, movementType, req.Reference, performedBy)
		if err != nil {
			return nil, err
		}

		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
				return err
			}
			return repos.MovementRepo().Create(ctx, movement)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publishDomainEvents(ctx, level)
		response := ToStockLevelResponse(level)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// BulkApply applies several deltas independently and reports the mixed
// outcome. Items are not atomic as a group: a failed item never rolls back
// the ones that already succeeded.
func (s *LedgerService) BulkApply(ctx context.Context, tenantID, performedBy uuid.UUID, req BulkUpdateRequest) (*BulkUpdateReport, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Bulk update requires at least one item")
	}

	report := &BulkUpdateReport{
		Succeeded: make([]StockLevelResponse, 0, len(req.Items)),
		Failed:    make([]BulkItemError, 0),
	}
	for i, item := range req.Items {
		response, err := s.ApplyDelta(ctx, tenantID, performedBy, item)
		if err != nil {
			code := shared.CodeValidationError
			message := err.Error()
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				code = domainErr.Code
			}
			report.Failed = append(report.Failed, BulkItemError{
				Index:     i,
				ProductID: item.ProductID,
				Code:      code,
				Message:   message,
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, *response)
	}
	return report, nil
}

// Reserve places a hold on available stock. The hold raises ReservedQuantity
// on the level and records a reservation row carrying the reference and
// expiry; no journal entry is written because quantity-on-hand is unchanged.
func (s *LedgerService) Reserve(ctx context.Context, tenantID uuid.UUID, req ReserveRequest) (*StockLevelResponse, error) {
	if err := s.checkLocation(ctx, tenantID, req.LocationID); err != nil {
		return nil, err
	}

	ttl := s.reservationTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		level, err := s.stockLevelRepo.GetOrCreate(ctx, tenantID, req.ProductID, req.LocationID)
		if err != nil {
			return nil, err
		}

		if err := level.Reserve(req.Quantity); err != nil {
			return nil, err
		}
		reservation := ledger.NewReservation(
			tenantID, level.ID, req.ProductID, req.LocationID,
			req.Quantity, req.Reference, time.Now().Add(ttl),
		)

		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
				return err
			}
			return repos.ReservationRepo().Create(ctx, reservation)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		response := ToStockLevelResponse(level)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// Release returns held stock to the available pool. Releasing more than is
// currently held is clamped, not an error, so retried callers converge on the
// same state. When a reference is supplied the released amount is consumed
// from the matching reservation rows; a row only covered in part keeps its
// remainder visible to the expiry sweep.
func (s *LedgerService) Release(ctx context.Context, tenantID uuid.UUID, req ReleaseRequest) (*ReleaseResponse, error) {
	if err := s.checkLocation(ctx, tenantID, req.LocationID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		level, err := s.stockLevelRepo.GetOrCreate(ctx, tenantID, req.ProductID, req.LocationID)
		if err != nil {
			return nil, err
		}

		released, err := level.Release(req.Quantity)
		if err != nil {
			return nil, err
		}
		if released == 0 {
			return &ReleaseResponse{Released: 0, Level: ToStockLevelResponse(level)}, nil
		}

		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
				return err
			}
			if req.Reference == "" {
				return nil
			}
			rows, err := repos.ReservationRepo().FindActiveByReference(ctx, tenantID, req.Reference)
			if err != nil {
				return err
			}
			remaining := released
			for i := range rows {
				if remaining <= 0 {
					break
				}
				consumed := rows[i].Consume(remaining)
				if consumed == 0 {
					continue
				}
				if err := repos.ReservationRepo().Save(ctx, &rows[i]); err != nil {
					return err
				}
				remaining -= consumed
			}
			return nil
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &ReleaseResponse{Released: released, Level: ToStockLevelResponse(level)}, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// GetLevel retrieves the stock level for a product-location pair
func (s *LedgerService) GetLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*StockLevelResponse, error) {
	if err := s.checkLocation(ctx, tenantID, locationID); err != nil {
		return nil, err
	}
	level, err := s.stockLevelRepo.FindByProductAndLocation(ctx, tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}
	response := ToStockLevelResponse(level)
	return &response, nil
}

// SetThresholds updates the min/max thresholds and reorder parameters for a
// product-location pair
func (s *LedgerService) SetThresholds(ctx context.Context, tenantID, productID, locationID uuid.UUID, minThreshold, maxThreshold, reorderPoint, reorderQty int64) (*StockLevelResponse, error) {
	if err := s.checkLocation(ctx, tenantID, locationID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		level, err := s.stockLevelRepo.GetOrCreate(ctx, tenantID, productID, locationID)
		if err != nil {
			return nil, err
		}
		if err := level.SetThresholds(minThreshold, maxThreshold, reorderPoint, reorderQty); err != nil {
			return nil, err
		}
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			return repos.StockLevelRepo().SaveWithLock(ctx, level)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}
		response := ToStockLevelResponse(level)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// ListLevels retrieves stock levels for a tenant with filtering and pagination
func (s *LedgerService) ListLevels(ctx context.Context, tenantID uuid.UUID, filter StockListFilter) ([]StockLevelResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.LocationID != nil {
		domainFilter.Filters["location_id"] = *filter.LocationID
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.BelowMinimum {
		domainFilter.Filters["below_minimum"] = true
	}
	if filter.OutOfStock {
		domainFilter.Filters["out_of_stock"] = true
	}

	levels, err := s.stockLevelRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.stockLevelRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]StockLevelResponse, 0, len(levels))
	for i := range levels {
		responses = append(responses, ToStockLevelResponse(&levels[i]))
	}
	return responses, total, nil
}

// ListMovements retrieves the movement journal for a tenant with filtering
func (s *LedgerService) ListMovements(ctx context.Context, tenantID uuid.UUID, filter MovementListFilter) ([]StockMovementResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "occurred_at"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.LocationID != nil {
		domainFilter.Filters["location_id"] = *filter.LocationID
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.MovementType != "" {
		domainFilter.Filters["movement_type"] = filter.MovementType
	}
	if filter.Reference != "" {
		domainFilter.Filters["reference"] = filter.Reference
	}

	movements, err := s.movementRepo.FindForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movementRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]StockMovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToStockMovementResponse(&movements[i]))
	}
	return responses, total, nil
}

// ListAlerts retrieves the levels at or below their minimum threshold
func (s *LedgerService) ListAlerts(ctx context.Context, tenantID uuid.UUID) ([]StockAlertResponse, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 500
	levels, err := s.stockLevelRepo.FindBelowMinimum(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	alerts := make([]StockAlertResponse, 0, len(levels))
	for i := range levels {
		alerts = append(alerts, ToStockAlertResponse(&levels[i]))
	}
	return alerts, nil
}
