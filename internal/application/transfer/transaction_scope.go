package transfer

import (
	"context"

	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/transfer"
)

// TransactionScope provides transactional access to the repositories a
// transfer approval touches. The transfer write and every stock level/journal
// write commit or roll back as one unit, which is what makes approval
// all-or-nothing.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories share the same underlying database transaction.
type TransactionalRepositories interface {
	// TransferRepo returns the transfer repository scoped to the current transaction
	TransferRepo() transfer.StockTransferRepository
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() ledger.StockLevelRepository
	// MovementRepo returns the movement journal repository scoped to the current transaction
	MovementRepo() ledger.StockMovementRepository
}

// NoOpTransactionScope runs scope functions without a real transaction.
// Useful for tests against in-memory repositories.
type NoOpTransactionScope struct {
	transferRepo   transfer.StockTransferRepository
	stockLevelRepo ledger.StockLevelRepository
	movementRepo   ledger.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	transferRepo transfer.StockTransferRepository,
	stockLevelRepo ledger.StockLevelRepository,
	movementRepo ledger.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		transferRepo:   transferRepo,
		stockLevelRepo: stockLevelRepo,
		movementRepo:   movementRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// TransferRepo returns the transfer repository.
func (s *NoOpTransactionScope) TransferRepo() transfer.StockTransferRepository {
	return s.transferRepo
}

// StockLevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) StockLevelRepo() ledger.StockLevelRepository {
	return s.stockLevelRepo
}

// MovementRepo returns the movement journal repository.
func (s *NoOpTransactionScope) MovementRepo() ledger.StockMovementRepository {
	return s.movementRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
