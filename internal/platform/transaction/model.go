package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of a general ledger entry
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a row of the general income/expense ledger used for reporting.
// Rows created on behalf of a debt transaction carry DebtTransactionID.
type Transaction struct {
	ID                int64
	OwnerID           int64
	Amount            decimal.Decimal
	Kind              Kind
	CategoryID        int64
	CategoryName      string // read-only, populated by queries that join categories
	Description       string
	Date              time.Time
	DebtTransactionID *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Match identifies an unlinked ledger row by value. Used to find mirror rows
// written before rows carried a debt transaction link.
type Match struct {
	OwnerID     int64
	Amount      decimal.Decimal
	Kind        Kind
	Date        time.Time
	Description string
}

// Filters narrows a ledger listing
type Filters struct {
	Kind   *Kind
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
