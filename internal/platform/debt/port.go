package debt

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/category"
	"github.com/budgetly/backend/internal/platform/transaction"
)

// Repository defines the interface for debt and debt ledger persistence.
// Every method is scoped by owner id; rows of other owners behave as missing.
type Repository interface {
	// Debt operations
	CreateDebt(ctx context.Context, d *Debt) error
	GetDebt(ctx context.Context, ownerID, debtID int64) (*Debt, error)
	// GetDebtForUpdate locks the debt row until the surrounding transaction ends
	GetDebtForUpdate(ctx context.Context, ownerID, debtID int64) (*Debt, error)
	ListDebts(ctx context.Context, ownerID int64) ([]*Summary, error)
	UpdateDebt(ctx context.Context, d *Debt) error
	DeleteDebt(ctx context.Context, ownerID, debtID int64) error

	// Debt ledger operations
	CreateTransaction(ctx context.Context, dt *DebtTransaction) error
	// GetTransactionForUpdate locks the entry row until the surrounding transaction ends
	GetTransactionForUpdate(ctx context.Context, ownerID, debtID, txID int64) (*DebtTransaction, error)
	ListTransactions(ctx context.Context, ownerID, debtID int64) ([]*DebtTransaction, error)
	UpdateTransaction(ctx context.Context, dt *DebtTransaction) error
	DeleteTransaction(ctx context.Context, ownerID, debtID, txID int64) error
	// SumTransactions returns Σ payments and Σ increases of a debt
	SumTransactions(ctx context.Context, ownerID, debtID int64) (payments, increases decimal.Decimal, err error)

	// Transaction management
	BeginTx(ctx context.Context) (context.Context, error)
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error
}

// MirrorLedger is the part of the general ledger that mirror rows are written to.
// It must join the transaction started by Repository.BeginTx.
type MirrorLedger interface {
	Create(ctx context.Context, tx *transaction.Transaction) error
	DeleteByDebtTransaction(ctx context.Context, ownerID, debtTransactionID int64) (int64, error)
	DeleteOneMatching(ctx context.Context, m transaction.Match) (deleted int64, candidates int64, err error)
}

// CategoryResolver maps a category name to an id, reporting when it had to fall back
type CategoryResolver interface {
	Resolve(ctx context.Context, ownerID int64, name string, categoryType category.Type) (id int64, fallback bool, err error)
}

// BalanceCache caches remaining amounts. Implementations must tolerate being
// unavailable: the service logs cache errors and carries on.
//
// Every debt carries a generation that Invalidate advances. GetRemaining reports
// the generation it observed and SetRemaining stores only while that generation
// is still current, so a read that overlapped a committed mutation never writes
// its stale amount back.
type BalanceCache interface {
	GetRemaining(ctx context.Context, ownerID, debtID int64) (amount decimal.Decimal, generation int64, found bool, err error)
	SetRemaining(ctx context.Context, ownerID, debtID, generation int64, amount decimal.Decimal) error
	Invalidate(ctx context.Context, ownerID, debtID int64) error
}

// NopBalanceCache is used when no cache is configured
type NopBalanceCache struct{}

func (NopBalanceCache) GetRemaining(context.Context, int64, int64) (decimal.Decimal, int64, bool, error) {
	return decimal.Zero, 0, false, nil
}

func (NopBalanceCache) SetRemaining(context.Context, int64, int64, int64, decimal.Decimal) error {
	return nil
}

func (NopBalanceCache) Invalidate(context.Context, int64, int64) error {
	return nil
}
