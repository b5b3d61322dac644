package debt

import "github.com/budgetly/backend/internal/platform/transaction"

// Default mirror descriptions, used when an entry has none of its own
const (
	paymentDescriptionPrefix  = "Trả nợ: "
	increaseDescriptionPrefix = "Tăng nợ: "
)

// mirrorDescription is the description a mirror row carries for an entry of the named debt
func mirrorDescription(dt *DebtTransaction, debtName string) string {
	if dt.Description != "" {
		return dt.Description
	}
	if dt.Kind == KindIncrease {
		return increaseDescriptionPrefix + debtName
	}
	return paymentDescriptionPrefix + debtName
}

// newMirror builds the general ledger row for a debt entry
func newMirror(dt *DebtTransaction, debtName string, categoryID int64) *transaction.Transaction {
	link := dt.ID
	return &transaction.Transaction{
		OwnerID:           dt.OwnerID,
		Amount:            dt.Amount,
		Kind:              dt.Kind.MirrorKind(),
		CategoryID:        categoryID,
		Description:       mirrorDescription(dt, debtName),
		Date:              dt.Date,
		DebtTransactionID: &link,
	}
}

// mirrorMatch rebuilds the values the mirror of dt was written with, for rows
// that predate the debt transaction link
func mirrorMatch(dt *DebtTransaction, debtName string) transaction.Match {
	return transaction.Match{
		OwnerID:     dt.OwnerID,
		Amount:      dt.Amount,
		Kind:        dt.Kind.MirrorKind(),
		Date:        dt.Date,
		Description: mirrorDescription(dt, debtName),
	}
}
