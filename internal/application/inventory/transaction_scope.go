package inventory

import (
	"context"

	"github.com/boxstock/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to ledger repositories.
// All repository operations inside fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledger repositories bound to one transaction.
//
//   - StockRepo: the StockRecord aggregate root. Quantity and reserved counts
//     only change through it.
//   - ReservationRepo: reservation rows, written in the same transaction as the
//     record they belong to.
//   - SalesRepo: append-only sales history fed by commits.
type TransactionalRepositories interface {
	StockRepo() inventory.StockRecordRepository
	ReservationRepo() inventory.ReservationRepository
	SalesRepo() inventory.SalesHistoryRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used in tests.
type NoOpTransactionScope struct {
	stockRepo       inventory.StockRecordRepository
	reservationRepo inventory.ReservationRepository
	salesRepo       inventory.SalesHistoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockRepo inventory.StockRecordRepository,
	reservationRepo inventory.ReservationRepository,
	salesRepo inventory.SalesHistoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:       stockRepo,
		reservationRepo: reservationRepo,
		salesRepo:       salesRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) StockRepo() inventory.StockRecordRepository {
	return s.stockRepo
}

func (s *NoOpTransactionScope) ReservationRepo() inventory.ReservationRepository {
	return s.reservationRepo
}

func (s *NoOpTransactionScope) SalesRepo() inventory.SalesHistoryRepository {
	return s.salesRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
