package billing

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/billing"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/identity"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore backs the fake repositories. snapshot/restore lets the test scope
// behave like a rolling-back database transaction.
type memStore struct {
	mu           sync.Mutex
	levels       map[uuid.UUID]ledger.StockLevel
	movements    []ledger.StockMovement
	transactions map[uuid.UUID]billing.Transaction
	refunds      map[uuid.UUID]billing.Refund
}

func newMemStore() *memStore {
	return &memStore{
		levels:       make(map[uuid.UUID]ledger.StockLevel),
		transactions: make(map[uuid.UUID]billing.Transaction),
		refunds:      make(map[uuid.UUID]billing.Refund),
	}
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := newMemStore()
	for k, v := range s.levels {
		cp.levels[k] = v
	}
	for k, v := range s.transactions {
		cp.transactions[k] = v
	}
	for k, v := range s.refunds {
		cp.refunds[k] = v
	}
	cp.movements = append(cp.movements, s.movements...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = from.levels
	s.transactions = from.transactions
	s.refunds = from.refunds
	s.movements = from.movements
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
	return nil, nil
}

func (r *memStockLevelRepo) FindBelowMinimum(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ledger.StockLevel, error) {
	return nil, nil
}

func (r *memStockLevelRepo) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	return 0, nil
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
	return nil, nil
}

func (r *memMovementRepo) FindByStockLevel(_ context.Context, stockLevelID uuid.UUID) ([]ledger.StockMovement, error) {
	return nil, nil
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
	return 0, nil
}

type memTransactionRepo struct{ store *memStore }

func (r *memTransactionRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tx, ok := r.store.transactions[id]
	if !ok || tx.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := tx
	cp.Items = append([]billing.TransactionItem(nil), tx.Items...)
	return &cp, nil
}

func (r *memTransactionRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]billing.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []billing.Transaction
	for _, tx := range r.store.transactions {
		if tx.TenantID == tenantID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTransactionRepo) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, tx := range r.store.transactions {
		if tx.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (r *memTransactionRepo) Save(_ context.Context, tx *billing.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *tx
	cp.Items = append([]billing.TransactionItem(nil), tx.Items...)
	r.store.transactions[tx.ID] = cp
	return nil
}

type memRefundRepo struct{ store *memStore }

func (r *memRefundRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.Refund, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	refund, ok := r.store.refunds[id]
	if !ok || refund.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := refund
	return &cp, nil
}

func (r *memRefundRepo) FindByTransaction(_ context.Context, tenantID, transactionID uuid.UUID) ([]billing.Refund, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []billing.Refund
	for _, refund := range r.store.refunds {
		if refund.TenantID == tenantID && refund.TransactionID == transactionID {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefundRepo) Save(_ context.Context, refund *billing.Refund) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *refund
	cp.Items = append([]billing.RefundItem(nil), refund.Items...)
	r.store.refunds[refund.ID] = cp
	return nil
}

// snapshotScope mimics a database transaction over the in-memory store
type snapshotScope struct {
	store *memStore
}

func (s *snapshotScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	before := s.store.snapshot()
	if err := fn(s); err != nil {
		s.store.restore(before)
		return err
	}
	return nil
}

func (s *snapshotScope) TransactionRepo() billing.TransactionRepository { return &memTransactionRepo{s.store} }

func (s *snapshotScope) RefundRepo() billing.RefundRepository { return &memRefundRepo{s.store} }

func (s *snapshotScope) StockLevelRepo() ledger.StockLevelRepository { return &memStockLevelRepo{s.store} }

func (s *snapshotScope) MovementRepo() ledger.StockMovementRepository { return &memMovementRepo{s.store} }

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]catalog.Product)}
}

func (r *memProductRepo) add(t *testing.T, tenantID uuid.UUID, price string) uuid.UUID {
	t.Helper()
	product, err := catalog.NewProduct(tenantID, uuid.NewString(), "Widget", "general",
		decimal.RequireFromString(price), decimal.Zero)
	require.NoError(t, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return product.ID
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := product
	return &cp, nil
}

func (r *memProductRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok || product.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := product
	return &cp, nil
}

func (r *memProductRepo) FindBySKU(_ context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.TenantID == tenantID && product.SKU == sku {
			cp := product
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]catalog.Product, error) {
	return nil, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

type memLocationRepo struct {
	mu        sync.Mutex
	locations map[uuid.UUID]identity.Location
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{locations: make(map[uuid.UUID]identity.Location)}
}

func (r *memLocationRepo) add(t *testing.T, tenantID uuid.UUID, taxRate string) uuid.UUID {
	t.Helper()
	location, err := identity.NewLocation(tenantID, "Store", "ST", decimal.RequireFromString(taxRate))
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
	return nil, nil
}

func (r *memLocationRepo) Save(_ context.Context, location *identity.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[location.ID] = *location
	return nil
}

type billingFixture struct {
	store        *memStore
	service      *BillingService
	levelRepo    *memStockLevelRepo
	productRepo  *memProductRepo
	locationRepo *memLocationRepo
	tenantID     uuid.UUID
	locationID   uuid.UUID
	staffID      uuid.UUID
}

func newBillingFixture(t *testing.T, taxRate string) *billingFixture {
	t.Helper()
	store := newMemStore()
	productRepo := newMemProductRepo()
	locationRepo := newMemLocationRepo()
	tenantID := uuid.New()

	service := NewBillingService(
		&snapshotScope{store},
		&memTransactionRepo{store},
		&memRefundRepo{store},
		productRepo,
		locationRepo,
	)
	return &billingFixture{
		store:        store,
		service:      service,
		levelRepo:    &memStockLevelRepo{store},
		productRepo:  productRepo,
		locationRepo: locationRepo,
		tenantID:     tenantID,
		locationID:   locationRepo.add(t, tenantID, taxRate),
		staffID:      uuid.New(),
	}
}

func (f *billingFixture) seedStock(t *testing.T, productID uuid.UUID, qty int64) {
	t.Helper()
	level, err := f.levelRepo.GetOrCreate(context.Background(), f.tenantID, productID, f.locationID)
	require.NoError(t, err)
	_, err = level.ApplyDelta(qty, ledger.MovementTypePurchase, "SEED", f.staffID)
	require.NoError(t, err)
	level.ClearDomainEvents()
	require.NoError(t, f.levelRepo.SaveWithLock(context.Background(), level))
}

func (f *billingFixture) quantityOf(t *testing.T, productID uuid.UUID) int64 {
	t.Helper()
	level, err := f.levelRepo.FindByProductAndLocation(context.Background(), f.tenantID, productID, f.locationID)
	require.NoError(t, err)
	return level.Quantity
}

func TestBillingService_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("prices from catalog, taxes from location, debits stock", func(t *testing.T) {
		f := newBillingFixture(t, "0.10")
		productID := f.productRepo.add(t, f.tenantID, "10.00")
		f.seedStock(t, productID, 5)

		resp, err := f.service.CreateTransaction(ctx, f.tenantID, f.staffID, CreateTransactionRequest{
			LocationID:    f.locationID,
			PaymentMethod: "CASH",
			Items:         []SaleItemRequest{{ProductID: productID, Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("20.00")))
		assert.True(t, resp.TaxAmount.Equal(decimal.RequireFromString("2.00")), resp.TaxAmount.String())
		assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("22.00")))

		assert.Equal(t, int64(3), f.quantityOf(t, productID))

		movements, err := (&memMovementRepo{f.store}).FindByReference(ctx, f.tenantID, resp.ID.String())
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, ledger.MovementTypeSale, movements[0].MovementType)
		assert.Equal(t, int64(-2), movements[0].Delta)
	})

	t.Run("mid-sale failure leaves no partial debits behind", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		productA := f.productRepo.add(t, f.tenantID, "5.00")
		productB := f.productRepo.add(t, f.tenantID, "7.00")
		f.seedStock(t, productA, 10)
		f.seedStock(t, productB, 1)

		_, err := f.service.CreateTransaction(ctx, f.tenantID, f.staffID, CreateTransactionRequest{
			LocationID: f.locationID,
			Items: []SaleItemRequest{
				{ProductID: productA, Quantity: 2},
				{ProductID: productB, Quantity: 3},
			},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInsufficientStock, domainErr.Code)

		assert.Equal(t, int64(10), f.quantityOf(t, productA))
		assert.Equal(t, int64(1), f.quantityOf(t, productB))

		var sales int
		for _, m := range f.store.movements {
			if m.MovementType == ledger.MovementTypeSale {
				sales++
			}
		}
		assert.Zero(t, sales)
		assert.Empty(t, f.store.transactions)
	})

	t.Run("foreign location is access denied", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		productID := f.productRepo.add(t, f.tenantID, "5.00")
		foreign := f.locationRepo.add(t, uuid.New(), "0")

		_, err := f.service.CreateTransaction(ctx, f.tenantID, f.staffID, CreateTransactionRequest{
			LocationID: foreign,
			Items:      []SaleItemRequest{{ProductID: productID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, shared.ErrAccessDenied)
	})

	t.Run("foreign product is rejected without leaking", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		foreignProduct := f.productRepo.add(t, uuid.New(), "5.00")

		_, err := f.service.CreateTransaction(ctx, f.tenantID, f.staffID, CreateTransactionRequest{
			LocationID: f.locationID,
			Items:      []SaleItemRequest{{ProductID: foreignProduct, Quantity: 1}},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeValidationError, domainErr.Code)
	})
}

func TestBillingService_ProcessPayment(t *testing.T) {
	ctx := context.Background()

	newPendingSale := func(t *testing.T, f *billingFixture) *TransactionResponse {
		t.Helper()
		productID := f.productRepo.add(t, f.tenantID, "10.00")
		f.seedStock(t, productID, 5)
		resp, err := f.service.CreateTransaction(ctx, f.tenantID, f.staffID, CreateTransactionRequest{
			LocationID: f.locationID,
			Items:      []SaleItemRequest{{ProductID: productID, Quantity: 2}},
		})
		require.NoError(t, err)
		return resp
	}

	t.Run("exact payment completes the transaction", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		sale := newPendingSale(t, f)

		paid, err := f.service.ProcessPayment(ctx, f.tenantID, PaymentRequest{
			TransactionID: sale.ID,
			Amount:        sale.TotalAmount,
			Method:        "CARD",
		})
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", paid.Status)
		assert.Equal(t, "COMPLETED", paid.PaymentStatus)
		assert.NotNil(t, paid.PaidAt)
	})

	t.Run("amount mismatch is rejected and nothing settles", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		sale := newPendingSale(t, f)

		_, err := f.service.ProcessPayment(ctx, f.tenantID, PaymentRequest{
			TransactionID: sale.ID,
			Amount:        sale.TotalAmount.Sub(decimal.RequireFromString("0.01")),
		})
		assert.ErrorIs(t, err, shared.ErrAmountMismatch)

		after, err := f.service.GetTransaction(ctx, f.tenantID, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", after.Status)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		_, err := f.service.ProcessPayment(ctx, f.tenantID, PaymentRequest{
			TransactionID: uuid.New(),
			Amount:        decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, shared.ErrTransactionNotFound)
	})

	t.Run("transaction of a foreign tenant looks unknown", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		sale := newPendingSale(t, f)

		_, err := f.service.ProcessPayment(ctx, uuid.New(), PaymentRequest{
			TransactionID: sale.ID,
			Amount:        sale.TotalAmount,
		})
		assert.ErrorIs(t, err, shared.ErrTransactionNotFound)
	})
}

func TestBillingService_ProcessRefund(t *testing.T) {
	ctx := context.Background()

	newCompletedSale := func(t *testing.T, f *billingFixture, productID uuid.UUID, qty int64) *TransactionResponse {
		t.Helper()
		resp, err := f.service.CreateTransaction(ctx, f.tenantID, f.staffID, CreateTransactionRequest{
			LocationID: f.locationID,
			Items:      []SaleItemRequest{{ProductID: productID, Quantity: qty}},
		})
		require.NoError(t, err)
		paid, err := f.service.ProcessPayment(ctx, f.tenantID, PaymentRequest{
			TransactionID: resp.ID,
			Amount:        resp.TotalAmount,
		})
		require.NoError(t, err)
		return paid
	}

	t.Run("partial refund credits stock and flags the transaction", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		productID := f.productRepo.add(t, f.tenantID, "10.00")
		f.seedStock(t, productID, 10)
		sale := newCompletedSale(t, f, productID, 3)

		refund, err := f.service.ProcessRefund(ctx, f.tenantID, f.staffID, RefundRequest{
			TransactionID: sale.ID,
			Reason:        "damaged",
			Items:         []RefundItemRequest{{ProductID: productID, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", refund.Status)
		assert.True(t, refund.TotalAmount.Equal(decimal.RequireFromString("10.00")), refund.TotalAmount.String())
		require.NotNil(t, refund.Transaction)
		assert.Equal(t, "PARTIALLY_REFUNDED", refund.Transaction.Status)

		// 10 seeded, 3 sold, 1 returned
		assert.Equal(t, int64(8), f.quantityOf(t, productID))

		movements, err := (&memMovementRepo{f.store}).FindByReference(ctx, f.tenantID, refund.ID.String())
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, ledger.MovementTypeReturn, movements[0].MovementType)
		assert.Equal(t, int64(1), movements[0].Delta)
	})

	t.Run("returning everything marks the transaction REFUNDED", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		productID := f.productRepo.add(t, f.tenantID, "10.00")
		f.seedStock(t, productID, 10)
		sale := newCompletedSale(t, f, productID, 3)

		refund, err := f.service.ProcessRefund(ctx, f.tenantID, f.staffID, RefundRequest{
			TransactionID: sale.ID,
			Items:         []RefundItemRequest{{ProductID: productID, Quantity: 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, "REFUNDED", refund.Transaction.Status)
		assert.Equal(t, int64(10), f.quantityOf(t, productID))
	})

	t.Run("refund amount includes the tax share", func(t *testing.T) {
		f := newBillingFixture(t, "0.10")
		productID := f.productRepo.add(t, f.tenantID, "10.00")
		f.seedStock(t, productID, 10)
		sale := newCompletedSale(t, f, productID, 2)

		refund, err := f.service.ProcessRefund(ctx, f.tenantID, f.staffID, RefundRequest{
			TransactionID: sale.ID,
			Items:         []RefundItemRequest{{ProductID: productID, Quantity: 1}},
		})
		require.NoError(t, err)
		// line share 10.00 plus its 10% tax share
		assert.True(t, refund.TotalAmount.Equal(decimal.RequireFromString("11.00")), refund.TotalAmount.String())
	})

	t.Run("over-refund is rejected", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		productID := f.productRepo.add(t, f.tenantID, "10.00")
		f.seedStock(t, productID, 10)
		sale := newCompletedSale(t, f, productID, 2)

		_, err := f.service.ProcessRefund(ctx, f.tenantID, f.staffID, RefundRequest{
			TransactionID: sale.ID,
			Items:         []RefundItemRequest{{ProductID: productID, Quantity: 3}},
		})
		require.Error(t, err)
		assert.Equal(t, int64(8), f.quantityOf(t, productID))
	})

	t.Run("refund on an unknown transaction", func(t *testing.T) {
		f := newBillingFixture(t, "0")
		_, err := f.service.ProcessRefund(ctx, f.tenantID, f.staffID, RefundRequest{
			TransactionID: uuid.New(),
			Items:         []RefundItemRequest{{ProductID: uuid.New(), Quantity: 1}},
		})
		assert.ErrorIs(t, err, shared.ErrTransactionNotFound)
	})
}

func TestBillingService_QuickSale(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, "0.05")
	productID := f.productRepo.add(t, f.tenantID, "4.00")
	f.seedStock(t, productID, 10)

	resp, err := f.service.QuickSale(ctx, f.tenantID, f.staffID, QuickSaleRequest{
		LocationID:    f.locationID,
		PaymentMethod: "CASH",
		Items:         []SaleItemRequest{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("12.60")), resp.TotalAmount.String())
	assert.Equal(t, int64(7), f.quantityOf(t, productID))
}
