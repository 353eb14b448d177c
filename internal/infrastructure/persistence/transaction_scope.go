package persistence

import (
	"context"

	appbilling "github.com/retailops/backend/internal/application/billing"
	appledger "github.com/retailops/backend/internal/application/ledger"
	apptransfer "github.com/retailops/backend/internal/application/transfer"
	"github.com/retailops/backend/internal/domain/billing"
	"github.com/retailops/backend/internal/domain/ledger"
	"github.com/retailops/backend/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope implements the ledger TransactionScope using
// GORM transactions, so a stock level write and its journal append commit or
// roll back together.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

type gormLedgerRepositories struct {
	tx *gorm.DB
}

func (r *gormLedgerRepositories) StockLevelRepo() ledger.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

func (r *gormLedgerRepositories) MovementRepo() ledger.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormLedgerRepositories) ReservationRepo() ledger.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

// GormTransferTransactionScope implements the transfer TransactionScope using
// GORM transactions. All deltas of an approval and the transfer row itself
// share one database transaction.
type GormTransferTransactionScope struct {
	db *gorm.DB
}

// NewGormTransferTransactionScope creates a new GormTransferTransactionScope
func NewGormTransferTransactionScope(db *gorm.DB) *GormTransferTransactionScope {
	return &GormTransferTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransferTransactionScope) Execute(ctx context.Context, fn func(repos apptransfer.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransferRepositories{tx: tx})
	})
}

type gormTransferRepositories struct {
	tx *gorm.DB
}

func (r *gormTransferRepositories) TransferRepo() transfer.StockTransferRepository {
	return NewGormStockTransferRepository(r.tx)
}

func (r *gormTransferRepositories) StockLevelRepo() ledger.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

func (r *gormTransferRepositories) MovementRepo() ledger.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// GormBillingTransactionScope implements the billing TransactionScope using
// GORM transactions. Stock debits, the transaction row, and refund rows share
// one database transaction, which is what makes sale compensation automatic.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBillingRepositories{tx: tx})
	})
}

type gormBillingRepositories struct {
	tx *gorm.DB
}

func (r *gormBillingRepositories) TransactionRepo() billing.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormBillingRepositories) RefundRepo() billing.RefundRepository {
	return NewGormRefundRepository(r.tx)
}

func (r *gormBillingRepositories) StockLevelRepo() ledger.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

func (r *gormBillingRepositories) MovementRepo() ledger.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Interface assertions
var _ appledger.TransactionScope = (*GormLedgerTransactionScope)(nil)
var _ appledger.TransactionalRepositories = (*gormLedgerRepositories)(nil)
var _ apptransfer.TransactionScope = (*GormTransferTransactionScope)(nil)
var _ apptransfer.TransactionalRepositories = (*gormTransferRepositories)(nil)
var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)
var _ appbilling.TransactionalRepositories = (*gormBillingRepositories)(nil)
