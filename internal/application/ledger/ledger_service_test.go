package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/identity"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory backing store shared by the fake repositories.
// SaveWithLock reproduces the database CAS: the write only lands when the
// stored version is exactly one behind the aggregate's.
type memStore struct {
	mu           sync.Mutex
	levels       map[uuid.UUID]ledger.StockLevel
	movements    []ledger.StockMovement
	reservations map[uuid.UUID]ledger.Reservation
}

func newMemStore() *memStore {
	return &memStore{
		levels:       make(map[uuid.UUID]ledger.StockLevel),
		reservations: make(map[uuid.UUID]ledger.Reservation),
	}
}

type memStockLevelRepo struct{ store *memStore }

func (r *memStockLevelRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	level, ok := r.store.levels[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := level
	return &cp, nil
}

func (r *memStockLevelRepo) FindByProductAndLocation(_ context.Context, tenantID, productID, locationID uuid.UUID) (*ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, level := range r.store.levels {
		if level.TenantID == tenantID && level.ProductID == productID && level.LocationID == locationID {
			cp := level
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStockLevelRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.StockLevel
	for _, level := range r.store.levels {
		if level.TenantID == tenantID {
			out = append(out, level)
		}
	}
	return out, nil
}

func (r *memStockLevelRepo) FindBelowMinimum(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.StockLevel
	for _, level := range r.store.levels {
		if level.TenantID == tenantID && level.IsBelowMinimum() {
			out = append(out, level)
		}
	}
	return out, nil
}

func (r *memStockLevelRepo) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, level := range r.store.levels {
		if level.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (r *memStockLevelRepo) GetOrCreate(_ context.Context, tenantID, productID, locationID uuid.UUID) (*ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, level := range r.store.levels {
		if level.TenantID == tenantID && level.ProductID == productID && level.LocationID == locationID {
			cp := level
			return &cp, nil
		}
	}
	level, err := ledger.NewStockLevel(tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}
	r.store.levels[level.ID] = *level
	cp := *level
	return &cp, nil
}

func (r *memStockLevelRepo) Save(_ context.Context, level *ledger.StockLevel) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.levels[level.ID] = *level
	return nil
}

func (r *memStockLevelRepo) SaveWithLock(_ context.Context, level *ledger.StockLevel) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.levels[level.ID]
	if !ok || stored.Version != level.Version-1 {
		return ledger.ErrOptimisticLock
	}
	r.store.levels[level.ID] = *level
	return nil
}

type memMovementRepo struct{ store *memStore }

func (r *memMovementRepo) Create(_ context.Context, movement *ledger.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.movements = append(r.store.movements, *movement)
	return nil
}

func (r *memMovementRepo) FindForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.StockMovement
	for _, m := range r.store.movements {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByStockLevel(_ context.Context, stockLevelID uuid.UUID) ([]ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.StockMovement
	for _, m := range r.store.movements {
		if m.StockLevelID == stockLevelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByReference(_ context.Context, tenantID uuid.UUID, reference string) ([]ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.StockMovement
	for _, m := range r.store.movements {
		if m.TenantID == tenantID && m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, m := range r.store.movements {
		if m.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

type memReservationRepo struct{ store *memStore }

func (r *memReservationRepo) Create(_ context.Context, reservation *ledger.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.reservations[reservation.ID] = *reservation
	return nil
}

func (r *memReservationRepo) Save(_ context.Context, reservation *ledger.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.reservations[reservation.ID] = *reservation
	return nil
}

func (r *memReservationRepo) FindActiveByReference(_ context.Context, tenantID uuid.UUID, reference string) ([]ledger.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.Reservation
	for _, res := range r.store.reservations {
		if res.TenantID == tenantID && res.Reference == reference && !res.Released {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memReservationRepo) FindExpired(_ context.Context, asOf time.Time) ([]ledger.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []ledger.Reservation
	for _, res := range r.store.reservations {
		if !res.Released && res.ExpireAt.Before(asOf) {
			out = append(out, res)
		}
	}
	return out, nil
}

type memLocationRepo struct {
	mu        sync.Mutex
	locations map[uuid.UUID]identity.Location
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{locations: make(map[uuid.UUID]identity.Location)}
}

func (r *memLocationRepo) add(t *testing.T, tenantID uuid.UUID) uuid.UUID {
	t.Helper()
	location, err := identity.NewLocation(tenantID, "Main Store", "MAIN", decimal.Zero)
	require.NoError(t, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[location.ID] = *location
	return location.ID
}

func (r *memLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.locations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := location
	return &cp, nil
}

func (r *memLocationRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*identity.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.locations[id]
	if !ok || location.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := location
	return &cp, nil
}

func (r *memLocationRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]identity.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []identity.Location
	for _, location := range r.locations {
		if location.TenantID == tenantID {
			out = append(out, location)
		}
	}
	return out, nil
}

func (r *memLocationRepo) Save(_ context.Context, location *identity.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[location.ID] = *location
	return nil
}

type ledgerFixture struct {
	store        *memStore
	service      *LedgerService
	locationRepo *memLocationRepo
	tenantID     uuid.UUID
	locationID   uuid.UUID
	productID    uuid.UUID
	staffID      uuid.UUID
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := newMemStore()
	levelRepo := &memStockLevelRepo{store}
	movementRepo := &memMovementRepo{store}
	reservationRepo := &memReservationRepo{store}
	locationRepo := newMemLocationRepo()
	scope := NewNoOpTransactionScope(levelRepo, movementRepo, reservationRepo)

	tenantID := uuid.New()
	return &ledgerFixture{
		store:        store,
		service:      NewLedgerService(scope, levelRepo, movementRepo, reservationRepo, locationRepo),
		locationRepo: locationRepo,
		tenantID:     tenantID,
		locationID:   locationRepo.add(t, tenantID),
		productID:    uuid.New(),
		staffID:      uuid.New(),
	}
}

func (f *ledgerFixture) stockIn(t *testing.T, qty int64) {
	t.Helper()
	_, err := f.service.ApplyDelta(context.Background(), f.tenantID, f.staffID, ApplyDeltaRequest{
		ProductID:    f.productID,
		LocationID:   f.locationID,
		Delta:        qty,
		MovementType: ledger.MovementTypePurchase.String(),
		Reference:    "PO-SEED",
	})
	require.NoError(t, err)
}

func TestLedgerService_ApplyDelta(t *testing.T) {
	ctx := context.Background()

	t.Run("stock in creates the level lazily and journals the movement", func(t *testing.T) {
		f := newLedgerFixture(t)

		level, err := f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   f.locationID,
			Delta:        50,
			MovementType: "PURCHASE",
			Reference:    "PO-100",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(50), level.Quantity)

		movements, total, err := f.service.ListMovements(ctx, f.tenantID, MovementListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, movements, 1)
		assert.Equal(t, "PURCHASE", movements[0].MovementType)
		assert.Equal(t, "PO-100", movements[0].Reference)
	})

	t.Run("foreign location is access denied", func(t *testing.T) {
		f := newLedgerFixture(t)
		otherTenantLocation := f.locationRepo.add(t, uuid.New())

		_, err := f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   otherTenantLocation,
			Delta:        5,
			MovementType: "PURCHASE",
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeAccessDenied, domainErr.Code)
		// Same message as a location that does not exist at all
		_, missingErr := f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   uuid.New(),
			Delta:        5,
			MovementType: "PURCHASE",
		})
		assert.Equal(t, err.Error(), missingErr.Error())
	})

	t.Run("overdraw fails with insufficient stock", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 3)

		_, err := f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   f.locationID,
			Delta:        -4,
			MovementType: "SALE",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInsufficientStock, domainErr.Code)
	})

	t.Run("invalid movement type rejected before any write", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   f.locationID,
			Delta:        1,
			MovementType: "RESERVATION",
		})
		require.Error(t, err)
		assert.Empty(t, f.store.movements)
	})
}

func TestLedgerService_SetQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("set journals the signed difference", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)

		level, err := f.service.SetQuantity(ctx, f.tenantID, f.staffID, SetQuantityRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), level.Quantity)

		last := f.store.movements[len(f.store.movements)-1]
		assert.Equal(t, ledger.MovementTypeAdjustment, last.MovementType)
		assert.Equal(t, int64(-6), last.Delta)
		assert.Equal(t, int64(10), last.PreviousQty)
		assert.Equal(t, int64(4), last.NewQty)
	})

	t.Run("counted set uses COUNT_ADJUSTMENT", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)

		level, err := f.service.SetQuantity(ctx, f.tenantID, f.staffID, SetQuantityRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   12,
			Counted:    true,
		})
		require.NoError(t, err)
		assert.NotNil(t, level.LastCountDate)
		last := f.store.movements[len(f.store.movements)-1]
		assert.Equal(t, ledger.MovementTypeCountAdjustment, last.MovementType)
	})

	t.Run("no-op set writes no movement", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)
		before := len(f.store.movements)

		_, err := f.service.SetQuantity(ctx, f.tenantID, f.staffID, SetQuantityRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   10,
		})
		require.NoError(t, err)
		assert.Len(t, f.store.movements, before)
	})
}

func TestLedgerService_BulkApply(t *testing.T) {
	ctx := context.Background()

	t.Run("mixed report, failures do not roll back successes", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)
		foreignLocation := f.locationRepo.add(t, uuid.New())
		otherProduct := uuid.New()

		report, err := f.service.BulkApply(ctx, f.tenantID, f.staffID, BulkUpdateRequest{
			Items: []ApplyDeltaRequest{
				{ProductID: f.productID, LocationID: f.locationID, Delta: -2, MovementType: "SALE"},
				{ProductID: f.productID, LocationID: foreignLocation, Delta: 1, MovementType: "PURCHASE"},
				{ProductID: otherProduct, LocationID: f.locationID, Delta: -1, MovementType: "SALE"},
				{ProductID: f.productID, LocationID: f.locationID, Delta: 3, MovementType: "PURCHASE"},
			},
		})
		require.NoError(t, err)
		require.Len(t, report.Succeeded, 2)
		require.Len(t, report.Failed, 2)

		assert.Equal(t, 1, report.Failed[0].Index)
		assert.Equal(t, shared.CodeAccessDenied, report.Failed[0].Code)
		assert.Equal(t, 2, report.Failed[1].Index)
		assert.Equal(t, shared.CodeInsufficientStock, report.Failed[1].Code)

		level, err := f.service.GetLevel(ctx, f.tenantID, f.productID, f.locationID)
		require.NoError(t, err)
		assert.Equal(t, int64(11), level.Quantity)
	})
}

func TestLedgerService_ReserveRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("reserve claims available stock and records the hold", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)

		level, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-1",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10), level.Quantity)
		assert.Equal(t, int64(4), level.ReservedQuantity)
		assert.Equal(t, int64(6), level.Available)
		assert.Len(t, f.store.reservations, 1)
	})

	t.Run("reserve beyond available fails with INSUFFICIENT_AVAILABLE", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 5)

		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   6,
			Reference:  "ORDER-2",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInsufficientAvailable, domainErr.Code)
	})

	t.Run("reservations never create journal entries", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)
		before := len(f.store.movements)

		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   3,
			Reference:  "ORDER-3",
		})
		require.NoError(t, err)
		assert.Len(t, f.store.movements, before)
	})

	t.Run("double release is clamped", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)
		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-4",
		})
		require.NoError(t, err)

		first, err := f.service.Release(ctx, f.tenantID, ReleaseRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-4",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), first.Released)

		second, err := f.service.Release(ctx, f.tenantID, ReleaseRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-4",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), second.Released)
		assert.Equal(t, int64(0), second.Level.ReservedQuantity)
	})

	t.Run("sale is checked against quantity, not available", func(t *testing.T) {
		// quantity 10, reserve 4: a sale of 6 succeeds, the 7th unit does not
		f := newLedgerFixture(t)
		f.stockIn(t, 10)
		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-5",
		})
		require.NoError(t, err)

		_, err = f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   f.locationID,
			Delta:        -6,
			MovementType: "SALE",
		})
		require.NoError(t, err)

		_, err = f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
			ProductID:    f.productID,
			LocationID:   f.locationID,
			Delta:        -1,
			MovementType: "SALE",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInsufficientStock, domainErr.Code)
	})
}

func TestLedgerService_ConcurrentDecrements(t *testing.T) {
	// N writers each take one unit from a level holding N. Optimistic locking
	// forces losers to replay; everyone converges and the journal holds
	// exactly N sale movements.
	f := newLedgerFixture(t)
	const n = 8
	f.stockIn(t, n)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := f.service.ApplyDelta(ctx, f.tenantID, f.staffID, ApplyDeltaRequest{
					ProductID:    f.productID,
					LocationID:   f.locationID,
					Delta:        -1,
					MovementType: "SALE",
				})
				if err == nil {
					return
				}
				if errors.Is(err, shared.ErrConcurrencyConflict) {
					continue
				}
				t.Errorf("unexpected error: %v", err)
				return
			}
		}()
	}
	wg.Wait()

	level, err := f.service.GetLevel(ctx, f.tenantID, f.productID, f.locationID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.Quantity)

	var sales int
	for _, m := range f.store.movements {
		if m.MovementType == ledger.MovementTypeSale {
			sales++
		}
	}
	assert.Equal(t, n, sales)
}

// lockAlwaysFails wraps the level repository so every CAS write loses
type lockAlwaysFails struct{ ledger.StockLevelRepository }

func (r *lockAlwaysFails) SaveWithLock(context.Context, *ledger.StockLevel) error {
	return ledger.ErrOptimisticLock
}

func TestLedgerService_RetriesExhausted(t *testing.T) {
	store := newMemStore()
	levelRepo := &lockAlwaysFails{&memStockLevelRepo{store}}
	movementRepo := &memMovementRepo{store}
	reservationRepo := &memReservationRepo{store}
	locationRepo := newMemLocationRepo()
	scope := NewNoOpTransactionScope(levelRepo, movementRepo, reservationRepo)
	service := NewLedgerService(scope, levelRepo, movementRepo, reservationRepo, locationRepo)

	tenantID := uuid.New()
	locationID := locationRepo.add(t, tenantID)

	_, err := service.ApplyDelta(context.Background(), tenantID, uuid.New(), ApplyDeltaRequest{
		ProductID:    uuid.New(),
		LocationID:   locationID,
		Delta:        1,
		MovementType: "PURCHASE",
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestReservationExpirationService(t *testing.T) {
	ctx := context.Background()

	t.Run("sweep releases expired holds, clamped against manual releases", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)

		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-EXP",
			TTLSeconds: 1,
		})
		require.NoError(t, err)

		// Manually release part of the hold before the sweep fires
		_, err = f.service.Release(ctx, f.tenantID, ReleaseRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   3,
		})
		require.NoError(t, err)

		// Force the reservation past its expiry
		f.store.mu.Lock()
		for id, res := range f.store.reservations {
			res.ExpireAt = time.Now().Add(-time.Minute)
			f.store.reservations[id] = res
		}
		f.store.mu.Unlock()

		sweeper := NewReservationExpirationService(
			NewNoOpTransactionScope(&memStockLevelRepo{f.store}, &memMovementRepo{f.store}, &memReservationRepo{f.store}),
			&memReservationRepo{f.store},
			&memStockLevelRepo{f.store},
			zap.NewNop(),
		)
		stats, err := sweeper.ReleaseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalExpired)
		assert.Equal(t, 1, stats.Released)

		level, err := f.service.GetLevel(ctx, f.tenantID, f.productID, f.locationID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), level.ReservedQuantity)
		assert.Equal(t, int64(10), level.Quantity)
	})

	t.Run("partial release by reference leaves the remainder sweepable", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)

		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   10,
			Reference:  "ORDER-PART",
			TTLSeconds: 1,
		})
		require.NoError(t, err)

		resp, err := f.service.Release(ctx, f.tenantID, ReleaseRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   4,
			Reference:  "ORDER-PART",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), resp.Released)
		assert.Equal(t, int64(6), resp.Level.ReservedQuantity)

		// The hold row keeps its unreleased remainder
		f.store.mu.Lock()
		for id, res := range f.store.reservations {
			assert.False(t, res.Released)
			assert.Equal(t, int64(6), res.Quantity)
			res.ExpireAt = time.Now().Add(-time.Minute)
			f.store.reservations[id] = res
		}
		f.store.mu.Unlock()

		sweeper := NewReservationExpirationService(
			NewNoOpTransactionScope(&memStockLevelRepo{f.store}, &memMovementRepo{f.store}, &memReservationRepo{f.store}),
			&memReservationRepo{f.store},
			&memStockLevelRepo{f.store},
			zap.NewNop(),
		)
		stats, err := sweeper.ReleaseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalExpired)
		assert.Equal(t, 1, stats.Released)

		level, err := f.service.GetLevel(ctx, f.tenantID, f.productID, f.locationID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), level.ReservedQuantity)
	})

	t.Run("full release by reference retires the hold row", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.stockIn(t, 10)

		_, err := f.service.Reserve(ctx, f.tenantID, ReserveRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   5,
			Reference:  "ORDER-FULL",
			TTLSeconds: 1,
		})
		require.NoError(t, err)

		_, err = f.service.Release(ctx, f.tenantID, ReleaseRequest{
			ProductID:  f.productID,
			LocationID: f.locationID,
			Quantity:   5,
			Reference:  "ORDER-FULL",
		})
		require.NoError(t, err)

		f.store.mu.Lock()
		for id, res := range f.store.reservations {
			assert.True(t, res.Released)
			res.ExpireAt = time.Now().Add(-time.Minute)
			f.store.reservations[id] = res
		}
		f.store.mu.Unlock()

		sweeper := NewReservationExpirationService(
			NewNoOpTransactionScope(&memStockLevelRepo{f.store}, &memMovementRepo{f.store}, &memReservationRepo{f.store}),
			&memReservationRepo{f.store},
			&memStockLevelRepo{f.store},
			zap.NewNop(),
		)
		stats, err := sweeper.ReleaseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalExpired)
	})

	t.Run("sweep with nothing expired is a no-op", func(t *testing.T) {
		f := newLedgerFixture(t)
		sweeper := NewReservationExpirationService(
			NewNoOpTransactionScope(&memStockLevelRepo{f.store}, &memMovementRepo{f.store}, &memReservationRepo{f.store}),
			&memReservationRepo{f.store},
			&memStockLevelRepo{f.store},
			zap.NewNop(),
		)
		stats, err := sweeper.ReleaseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalExpired)
	})
}
