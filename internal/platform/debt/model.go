package debt

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/category"
	"github.com/budgetly/backend/internal/platform/transaction"
)

// Kind is the type of a debt ledger entry
type Kind string

const (
	// KindPayment reduces what is owed
	KindPayment Kind = "payment"
	// KindIncrease adds to what is owed
	KindIncrease Kind = "increase"
)

// Category names used for mirror rows in the general ledger
const (
	CategoryDebtPayment  = "Debt Payment"
	CategoryDebtIncrease = "Loan/Debt Increase"
)

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	return k == KindPayment || k == KindIncrease
}

// MirrorKind is the general ledger kind a debt entry is mirrored as:
// payments leave the owner's pocket, increases bring money in.
func (k Kind) MirrorKind() transaction.Kind {
	if k == KindIncrease {
		return transaction.KindIncome
	}
	return transaction.KindExpense
}

// MirrorCategory is the category name and type a debt entry is mirrored under
func (k Kind) MirrorCategory() (string, category.Type) {
	if k == KindIncrease {
		return CategoryDebtIncrease, category.TypeIncome
	}
	return CategoryDebtPayment, category.TypeExpense
}

// Debt is an amount owed or lent
type Debt struct {
	ID           int64
	OwnerID      int64
	Name         string
	Amount       decimal.Decimal // principal
	InterestRate *decimal.Decimal
	DueDate      *time.Time
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is a debt with balances derived from its ledger
type Summary struct {
	Debt
	PaidAmount      decimal.Decimal // Σ payments − Σ increases
	RemainingAmount decimal.Decimal // principal − PaidAmount
}

// DebtTransaction is one entry of a debt's ledger
type DebtTransaction struct {
	ID          int64
	OwnerID     int64
	DebtID      int64
	Amount      decimal.Decimal
	Kind        Kind
	Description string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DebtInput carries the fields a debt is created or replaced with
type DebtInput struct {
	Name         string
	Amount       decimal.Decimal
	InterestRate *decimal.Decimal
	DueDate      *time.Time
	Description  string
}

// Validate checks the input before anything touches the store
func (in DebtInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrMissingDebtName
	}
	if len(in.Name) > 255 {
		return ErrDebtNameTooLong
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if in.InterestRate != nil {
		rate := *in.InterestRate
		if rate.IsNegative() {
			return ErrInvalidInterestRate
		}
		if rate.GreaterThanOrEqual(maxInterestRate) || !rate.Equal(rate.Round(4)) {
			return ErrInterestRateRange
		}
	}
	return nil
}

// TransactionInput carries the fields of a debt ledger entry. Nil Description or Date
// mean "not supplied": on create the date defaults to today, on update both keep
// their stored values.
type TransactionInput struct {
	Amount      decimal.Decimal
	Kind        Kind
	Description *string
	Date        *time.Time
}

// Validate checks the input before anything touches the store
func (in TransactionInput) Validate() error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if !in.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}

// Amount columns are NUMERIC(20,2) and interest_rate is NUMERIC(7,4)
var (
	maxAmount       = decimal.New(1, 18)
	maxInterestRate = decimal.New(1, 3)
)

// validateAmount rejects amounts the store would refuse or silently round
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// Remaining computes the outstanding balance of a debt from its ledger totals
func Remaining(principal, payments, increases decimal.Decimal) decimal.Decimal {
	return principal.Sub(payments).Add(increases)
}

// dateOnly drops the time of day; ledger dates are calendar days
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
