package billing

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/billing"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/identity"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// maxWriteAttempts bounds the optimistic-lock retry loop around stock debits
const maxWriteAttempts = 3

// BillingService handles sale transactions, payments and refunds
type BillingService struct {
	scope           TransactionScope
	transactionRepo billing.TransactionRepository
	refundRepo      billing.RefundRepository
	productRepo     catalog.ProductRepository
	locationRepo    identity.LocationRepository
	eventPublisher  shared.EventPublisher
}

// NewBillingService creates a new BillingService
func NewBillingService(
	scope TransactionScope,
	transactionRepo billing.TransactionRepository,
	refundRepo billing.RefundRepository,
	productRepo catalog.ProductRepository,
	locationRepo identity.LocationRepository,
) *BillingService {
	return &BillingService{
		scope:           scope,
		transactionRepo: transactionRepo,
		refundRepo:      refundRepo,
		productRepo:     productRepo,
		locationRepo:    locationRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BillingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// resolveLocation resolves the location within the caller tenant, reporting a
// foreign location with the same generic ACCESS_DENIED as a missing one.
func (s *BillingService) resolveLocation(ctx context.Context, tenantID, locationID uuid.UUID) (*identity.Location, error) {
	location, err := s.locationRepo.FindByIDForTenant(ctx, tenantID, locationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrAccessDenied
		}
		return nil, err
	}
	if !location.Active {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Location is deactivated")
	}
	return location, nil
}

func (s *BillingService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// CreateTransaction opens a sale: it prices every line from the catalog,
// computes totals with the location tax rate, and debits the sold quantities
// with SALE movements. The stock debits and the transaction row share one
// database transaction, so a line that cannot be covered rolls back every
// debit that preceded it and no movements are left behind.
func (s *BillingService) CreateTransaction(ctx context.Context, tenantID, staffID uuid.UUID, req CreateTransactionRequest) (*TransactionResponse, error) {
	location, err := s.resolveLocation(ctx, tenantID, req.LocationID)
	if err != nil {
		return nil, err
	}

	items := make([]billing.TransactionItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, line.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError(shared.CodeValidationError, "Unknown product in transaction")
			}
			return nil, err
		}
		if !product.Active {
			return nil, shared.NewDomainError(shared.CodeValidationError, "Product is deactivated")
		}
		item, err := billing.NewTransactionItem(product.ID, line.Quantity, product.Price, line.Discount)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		tx, err := billing.NewTransaction(tenantID, req.LocationID, staffID, items, req.PaymentMethod, location.TaxRate)
		if err != nil {
			return nil, err
		}

		// Deterministic order keeps concurrent sales over the same products
		// from deadlocking.
		debits := make([]billing.TransactionItem, len(tx.Items))
		copy(debits, tx.Items)
		sort.Slice(debits, func(i, j int) bool {
			return bytes.Compare(debits[i].ProductID[:], debits[j].ProductID[:]) < 0
		})

		reference := tx.ID.String()
		var touched []*ledger.StockLevel
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, item := range debits {
				level, err := repos.StockLevelRepo().GetOrCreate(ctx, tenantID, item.ProductID, req.LocationID)
				if err != nil {
					return err
				}
				movement, err := level.ApplyDelta(-item.Quantity, ledger.MovementTypeSale, reference, staffID)
				if err != nil {
					return err
				}
				if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
					return err
				}
				if err := repos.MovementRepo().Create(ctx, movement); err != nil {
					return err
				}
				touched = append(touched, level)
			}
			return repos.TransactionRepo().Save(ctx, tx)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var events []shared.DomainEvent
		for _, level := range touched {
			events = append(events, level.GetDomainEvents()...)
			level.ClearDomainEvents()
		}
		s.publishEvents(ctx, events)

		response := ToTransactionResponse(tx)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// ProcessPayment settles a pending transaction. The tendered amount must
// match the transaction total exactly; no partial payment or change handling
// exists at this boundary.
func (s *BillingService) ProcessPayment(ctx context.Context, tenantID uuid.UUID, req PaymentRequest) (*TransactionResponse, error) {
	tx, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, req.TransactionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrTransactionNotFound
		}
		return nil, err
	}

	if err := tx.CompletePayment(req.Method, req.Amount); err != nil {
		return nil, err
	}
	if err := s.transactionRepo.Save(ctx, tx); err != nil {
		return nil, err
	}

	events := tx.GetDomainEvents()
	tx.ClearDomainEvents()
	s.publishEvents(ctx, events)

	response := ToTransactionResponse(tx)
	return &response, nil
}

// ProcessRefund returns sold items against a completed transaction. Each
// returned line credits stock with a RETURN movement; the transaction moves
// to PARTIALLY_REFUNDED or REFUNDED depending on whether every sold unit has
// now come back. Stock credits, the refund, and the transaction update share
// one database transaction.
func (s *BillingService) ProcessRefund(ctx context.Context, tenantID, requestedBy uuid.UUID, req RefundRequest) (*RefundResponse, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		tx, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, req.TransactionID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.ErrTransactionNotFound
			}
			return nil, err
		}

		refund, err := billing.NewRefund(tenantID, tx.ID, tx.LocationID, requestedBy, req.Reason)
		if err != nil {
			return nil, err
		}

		refundedQty := make(map[uuid.UUID]int64, len(req.Items))
		for _, line := range req.Items {
			item := tx.ItemByProduct(line.ProductID)
			if item == nil {
				return nil, shared.NewDomainError(shared.CodeValidationError, "Refunded product was not part of this transaction")
			}
			amount := s.refundAmount(tx, item, line.Quantity)
			if err := refund.AddItem(line.ProductID, line.Quantity, amount); err != nil {
				return nil, err
			}
			refundedQty[line.ProductID] += line.Quantity
		}

		// Validates over-refund and flips the transaction status
		if err := tx.RecordRefund(refundedQty); err != nil {
			return nil, err
		}
		if err := refund.Approve(); err != nil {
			return nil, err
		}
		if err := refund.Complete(); err != nil {
			return nil, err
		}

		credits := make([]billing.RefundItem, len(refund.Items))
		copy(credits, refund.Items)
		sort.Slice(credits, func(i, j int) bool {
			return bytes.Compare(credits[i].ProductID[:], credits[j].ProductID[:]) < 0
		})

		reference := refund.ID.String()
		var touched []*ledger.StockLevel
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, item := range credits {
				level, err := repos.StockLevelRepo().GetOrCreate(ctx, tenantID, item.ProductID, tx.LocationID)
				if err != nil {
					return err
				}
				movement, err := level.ApplyDelta(item.Quantity, ledger.MovementTypeReturn, reference, requestedBy)
				if err != nil {
					return err
				}
				if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
					return err
				}
				if err := repos.MovementRepo().Create(ctx, movement); err != nil {
					return err
				}
				touched = append(touched, level)
			}
			if err := repos.RefundRepo().Save(ctx, refund); err != nil {
				return err
			}
			return repos.TransactionRepo().Save(ctx, tx)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		events := refund.GetDomainEvents()
		refund.ClearDomainEvents()
		for _, level := range touched {
			events = append(events, level.GetDomainEvents()...)
			level.ClearDomainEvents()
		}
		s.publishEvents(ctx, events)

		response := ToRefundResponse(refund)
		txResponse := ToTransactionResponse(tx)
		response.Transaction = &txResponse
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// refundAmount prices a returned quantity as its share of the line total plus
// the same share of the transaction's tax.
func (s *BillingService) refundAmount(tx *billing.Transaction, item *billing.TransactionItem, qty int64) decimal.Decimal {
	if item.Quantity == 0 {
		return decimal.Zero
	}
	share := decimal.NewFromInt(qty).Div(decimal.NewFromInt(item.Quantity))
	base := item.LineTotal.Mul(share)

	taxable := tx.Subtotal.Sub(tx.DiscountAmount)
	if taxable.IsPositive() {
		base = base.Add(tx.TaxAmount.Mul(base).Div(taxable))
	}
	return base.Round(4)
}

// QuickSale creates a transaction and settles it with an exact payment in one
// call, for counter sales where the tendered amount is computed client-side
// after the fact.
func (s *BillingService) QuickSale(ctx context.Context, tenantID, staffID uuid.UUID, req QuickSaleRequest) (*TransactionResponse, error) {
	created, err := s.CreateTransaction(ctx, tenantID, staffID, CreateTransactionRequest{
		LocationID:    req.LocationID,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
	})
	if err != nil {
		return nil, err
	}
	return s.ProcessPayment(ctx, tenantID, PaymentRequest{
		TransactionID: created.ID,
		Amount:        created.TotalAmount,
		Method:        req.PaymentMethod,
	})
}

// GetTransaction retrieves a transaction within the caller tenant
func (s *BillingService) GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, transactionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrTransactionNotFound
		}
		return nil, err
	}
	response := ToTransactionResponse(tx)
	return &response, nil
}

// ListTransactions retrieves transactions for a tenant with filtering
func (s *BillingService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
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
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	transactions, err := s.transactionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, ToTransactionResponse(&transactions[i]))
	}
	return responses, total, nil
}
