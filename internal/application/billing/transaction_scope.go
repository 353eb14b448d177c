package billing

import (
	"context"

	"github.com/retailops/backend/internal/domain/billing"
	"github.com/retailops/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the repositories a sale
// or refund touches. The billing write and every stock level/journal write
// commit or roll back as one unit: a sale that fails on its third line leaves
// no movements from the first two behind.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories share the same underlying database transaction.
type TransactionalRepositories interface {
	// TransactionRepo returns the transaction repository scoped to the current transaction
	TransactionRepo() billing.TransactionRepository
	// RefundRepo returns the refund repository scoped to the current transaction
	RefundRepo() billing.RefundRepository
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() ledger.StockLevelRepository
	// MovementRepo returns the movement journal repository scoped to the current transaction
	MovementRepo() ledger.StockMovementRepository
}

// NoOpTransactionScope runs scope functions without a real transaction.
// Useful for tests against in-memory repositories.
type NoOpTransactionScope struct {
	transactionRepo billing.TransactionRepository
	refundRepo      billing.RefundRepository
	stockLevelRepo  ledger.StockLevelRepository
	movementRepo    ledger.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	transactionRepo billing.TransactionRepository,
	refundRepo billing.RefundRepository,
	stockLevelRepo ledger.StockLevelRepository,
	movementRepo ledger.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		transactionRepo: transactionRepo,
		refundRepo:      refundRepo,
		stockLevelRepo:  stockLevelRepo,
		movementRepo:    movementRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// TransactionRepo returns the transaction repository.
func (s *NoOpTransactionScope) TransactionRepo() billing.TransactionRepository {
	return s.transactionRepo
}

// RefundRepo returns the refund repository.
func (s *NoOpTransactionScope) RefundRepo() billing.RefundRepository {
	return s.refundRepo
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
