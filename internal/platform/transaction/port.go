package transaction

import (
	"context"
)

// Repository defines the interface for general ledger persistence
type Repository interface {
	// Create inserts a ledger row and sets its ID and timestamps
	Create(ctx context.Context, tx *Transaction) error

	// GetByID returns the owner's row or ErrTransactionNotFound
	GetByID(ctx context.Context, ownerID, id int64) (*Transaction, error)

	// List returns the owner's rows, newest first
	List(ctx context.Context, ownerID int64, filters Filters) ([]*Transaction, error)

	// DeleteByDebtTransaction removes rows linked to a debt transaction and returns how many were removed
	DeleteByDebtTransaction(ctx context.Context, ownerID, debtTransactionID int64) (int64, error)

	// DeleteOneMatching removes at most one unlinked row equal to m. It returns the number of rows
	// removed and the number of rows that matched before the removal.
	DeleteOneMatching(ctx context.Context, m Match) (deleted int64, candidates int64, err error)
}
