package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/identity"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/transfer"
)

// maxWriteAttempts bounds the optimistic-lock retry loop around approval
const maxWriteAttempts = 3

// deltaStep is one stock level write planned for an approval
type deltaStep struct {
	locationID   uuid.UUID
	productID    uuid.UUID
	delta        int64
	movementType ledger.MovementType
}

// TransferService handles location-to-location stock transfers
type TransferService struct {
	scope          TransactionScope
	transferRepo   transfer.StockTransferRepository
	stockLevelRepo ledger.StockLevelRepository
	locationRepo   identity.LocationRepository
	eventPublisher shared.EventPublisher
}

// NewTransferService creates a new TransferService
func NewTransferService(
	scope TransactionScope,
	transferRepo transfer.StockTransferRepository,
	stockLevelRepo ledger.StockLevelRepository,
	locationRepo identity.LocationRepository,
) *TransferService {
	return &TransferService{
		scope:          scope,
		transferRepo:   transferRepo,
		stockLevelRepo: stockLevelRepo,
		locationRepo:   locationRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// checkLocation resolves the location within the caller tenant, reporting a
// foreign location with the same generic ACCESS_DENIED as a missing one.
func (s *TransferService) checkLocation(ctx context.Context, tenantID, locationID uuid.UUID) error {
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

func (s *TransferService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// Create registers a PENDING transfer after checking that the source location
// can currently cover every requested line. The check is advisory: approval
// re-validates against live quantities before any stock moves.
func (s *TransferService) Create(ctx context.Context, tenantID, requestedBy uuid.UUID, req CreateTransferRequest) (*TransferResponse, error) {
	if err := s.checkLocation(ctx, tenantID, req.FromLocationID); err != nil {
		return nil, err
	}
	if err := s.checkLocation(ctx, tenantID, req.ToLocationID); err != nil {
		return nil, err
	}

	t, err := transfer.NewStockTransfer(tenantID, req.FromLocationID, req.ToLocationID, requestedBy, req.Note)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := t.AddItem(item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	for _, item := range t.Items {
		level, err := s.stockLevelRepo.FindByProductAndLocation(ctx, tenantID, item.ProductID, req.FromLocationID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError(
					shared.CodeInsufficientAvailable,
					fmt.Sprintf("No stock for product %s at source location", item.ProductID),
				)
			}
			return nil, err
		}
		if !level.CanFulfill(item.RequestedQty) {
			return nil, shared.NewDomainError(
				shared.CodeInsufficientAvailable,
				fmt.Sprintf("Insufficient available stock for product %s at source location: available %d, requested %d",
					item.ProductID, level.Available(), item.RequestedQty),
			)
		}
	}

	if err := s.transferRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	response := ToTransferResponse(t)
	return &response, nil
}

// Process approves or rejects a pending transfer
func (s *TransferService) Process(ctx context.Context, tenantID, transferID, processedBy uuid.UUID, req ProcessTransferRequest) (*TransferResponse, error) {
	switch req.Action {
	case ActionApprove:
		return s.approve(ctx, tenantID, transferID, processedBy)
	case ActionReject:
		return s.reject(ctx, tenantID, transferID, processedBy, req.Reason)
	default:
		return nil, shared.NewDomainError(shared.CodeValidationError, "Action must be approve or reject")
	}
}

// approve applies the TRANSFER_OUT/TRANSFER_IN pair for every item inside one
// database transaction. Any line failing rolls back every stock write; when
// the failure is insufficient stock the transfer itself ends REJECTED, while
// transient failures (an optimistic-lock loss surviving the retries, infra
// errors) leave it PENDING for a later attempt. Stock levels are written in
// sorted (location, product) order so concurrent approvals touching the same
// rows cannot deadlock.
func (s *TransferService) approve(ctx context.Context, tenantID, transferID, approvedBy uuid.UUID) (*TransferResponse, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		t, err := s.transferRepo.FindByIDForTenant(ctx, tenantID, transferID)
		if err != nil {
			return nil, err
		}
		if !t.Status.CanTransitionTo(transfer.TransferStatusCompleted) {
			return nil, shared.ErrInvalidState
		}

		plan := make([]deltaStep, 0, len(t.Items)*2)
		for _, item := range t.Items {
			plan = append(plan,
				deltaStep{t.FromLocationID, item.ProductID, -item.RequestedQty, ledger.MovementTypeTransferOut},
				deltaStep{t.ToLocationID, item.ProductID, item.RequestedQty, ledger.MovementTypeTransferIn},
			)
		}
		sort.Slice(plan, func(i, j int) bool {
			if c := bytes.Compare(plan[i].locationID[:], plan[j].locationID[:]); c != 0 {
				return c < 0
			}
			return bytes.Compare(plan[i].productID[:], plan[j].productID[:]) < 0
		})

		reference := t.ID.String()
		var touched []*ledger.StockLevel
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, step := range plan {
				level, err := repos.StockLevelRepo().GetOrCreate(ctx, tenantID, step.productID, step.locationID)
				if err != nil {
					return err
				}
				movement, err := level.ApplyDelta(step.delta, step.movementType, reference, approvedBy)
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
			if err := t.Complete(approvedBy); err != nil {
				return err
			}
			return repos.TransferRepo().Save(ctx, t)
		})
		if errors.Is(err, ledger.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == shared.CodeInsufficientStock {
				if rejectErr := s.rejectAfterFailedApproval(ctx, t, approvedBy, domainErr.Message); rejectErr != nil {
					return nil, rejectErr
				}
			}
			return nil, err
		}

		events := t.GetDomainEvents()
		t.ClearDomainEvents()
		for _, level := range touched {
			events = append(events, level.GetDomainEvents()...)
			level.ClearDomainEvents()
		}
		s.publishEvents(ctx, events)

		response := ToTransferResponse(t)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// rejectAfterFailedApproval moves a transfer whose approval ran out of stock
// to REJECTED. The stock writes already rolled back; only the status changes.
func (s *TransferService) rejectAfterFailedApproval(ctx context.Context, t *transfer.StockTransfer, approvedBy uuid.UUID, reason string) error {
	if err := t.Reject(approvedBy, reason); err != nil {
		return err
	}
	if err := s.transferRepo.Save(ctx, t); err != nil {
		return err
	}

	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	s.publishEvents(ctx, events)
	return nil
}

// reject marks the transfer REJECTED without touching stock
func (s *TransferService) reject(ctx context.Context, tenantID, transferID, rejectedBy uuid.UUID, reason string) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByIDForTenant(ctx, tenantID, transferID)
	if err != nil {
		return nil, err
	}
	if err := t.Reject(rejectedBy, reason); err != nil {
		return nil, err
	}
	if err := s.transferRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	s.publishEvents(ctx, events)

	response := ToTransferResponse(t)
	return &response, nil
}

// Cancel marks a pending or approved transfer CANCELLED without touching stock
func (s *TransferService) Cancel(ctx context.Context, tenantID, transferID, cancelledBy uuid.UUID) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByIDForTenant(ctx, tenantID, transferID)
	if err != nil {
		return nil, err
	}
	if err := t.Cancel(cancelledBy); err != nil {
		return nil, err
	}
	if err := s.transferRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	response := ToTransferResponse(t)
	return &response, nil
}

// GetByID retrieves a transfer within the caller tenant
func (s *TransferService) GetByID(ctx context.Context, tenantID, transferID uuid.UUID) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByIDForTenant(ctx, tenantID, transferID)
	if err != nil {
		return nil, err
	}
	response := ToTransferResponse(t)
	return &response, nil
}

// List retrieves transfers for a tenant with filtering and pagination
func (s *TransferService) List(ctx context.Context, tenantID uuid.UUID, filter TransferListFilter) ([]TransferResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.LocationID != nil {
		domainFilter.Filters["location_id"] = *filter.LocationID
	}

	transfers, err := s.transferRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transferRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		responses = append(responses, ToTransferResponse(&transfers[i]))
	}
	return responses, total, nil
}
