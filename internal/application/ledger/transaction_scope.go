package ledger

import (
	"context"

	"github.com/retailops/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying database
// transaction, so a stock level write and its journal append either both land
// or neither does.
type TransactionalRepositories interface {
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() ledger.StockLevelRepository
	// MovementRepo returns the movement journal repository scoped to the current transaction
	MovementRepo() ledger.StockMovementRepository
	// ReservationRepo returns the reservation repository scoped to the current transaction
	ReservationRepo() ledger.ReservationRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests against in-memory repositories.
type NoOpTransactionScope struct {
	stockLevelRepo  ledger.StockLevelRepository
	movementRepo    ledger.StockMovementRepository
	reservationRepo ledger.ReservationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockLevelRepo ledger.StockLevelRepository,
	movementRepo ledger.StockMovementRepository,
	reservationRepo ledger.ReservationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockLevelRepo:  stockLevelRepo,
		movementRepo:    movementRepo,
		reservationRepo: reservationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockLevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) StockLevelRepo() ledger.StockLevelRepository {
	return s.stockLevelRepo
}

// MovementRepo returns the movement journal repository.
func (s *NoOpTransactionScope) MovementRepo() ledger.StockMovementRepository {
	return s.movementRepo
}

// ReservationRepo returns the reservation repository.
func (s *NoOpTransactionScope) ReservationRepo() ledger.ReservationRepository {
	return s.reservationRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
