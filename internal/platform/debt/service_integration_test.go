//go:build integration

package debt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetly/backend/internal/infra/postgres"
	"github.com/budgetly/backend/internal/platform/category"
	"github.com/budgetly/backend/internal/platform/debt"
	"github.com/budgetly/backend/internal/platform/transaction"
	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/pkg/logger"
	"github.com/budgetly/backend/testutil/testdb"
)

var testDB *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close(ctx)
	if code != 0 {
		panic("tests failed")
	}
}

// failingMirrors wraps the real ledger and fails the chosen step
type failingMirrors struct {
	*postgres.TransactionRepository
	failCreate bool
	failDelete bool
}

var errInjected = errors.New("injected failure")

func (f *failingMirrors) Create(ctx context.Context, tx *transaction.Transaction) error {
	if f.failCreate {
		return errInjected
	}
	return f.TransactionRepository.Create(ctx, tx)
}

func (f *failingMirrors) DeleteByDebtTransaction(ctx context.Context, ownerID, id int64) (int64, error) {
	if f.failDelete {
		return 0, errInjected
	}
	return f.TransactionRepository.DeleteByDebtTransaction(ctx, ownerID, id)
}

type env struct {
	svc     *debt.Service
	debts   *postgres.DebtRepository
	ledger  *postgres.TransactionRepository
	mirrors *failingMirrors
}

func setupService(t *testing.T) (*env, context.Context) {
	ctx := context.Background()
	require.NoError(t, testDB.Reset(ctx))

	debts := postgres.NewDebtRepository(testDB.Pool)
	ledger := postgres.NewTransactionRepository(testDB.Pool)
	mirrors := &failingMirrors{TransactionRepository: ledger}
	categories := category.NewService(postgres.NewCategoryRepository(testDB.Pool))

	return &env{
		svc:     debt.NewService(debts, mirrors, categories, nil, logger.Discard()),
		debts:   debts,
		ledger:  ledger,
		mirrors: mirrors,
	}, ctx
}

func (e *env) ledgerRows(t *testing.T, ctx context.Context, owner int64) []*transaction.Transaction {
	rows, err := e.ledger.List(ctx, owner, transaction.Filters{})
	require.NoError(t, err)
	return rows
}

func (e *env) remaining(t *testing.T, ctx context.Context, owner, debtID int64) decimal.Decimal {
	r, err := e.svc.GetRemainingAmount(ctx, owner, debtID)
	require.NoError(t, err)
	return r
}

func mustDecimal(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestDebtLifecycle(t *testing.T) {
	e, ctx := setupService(t)
	const owner = int64(1)

	car, err := e.svc.CreateDebt(ctx, owner, debt.DebtInput{Name: "Car Loan", Amount: mustDecimal(10_000_000)})
	require.NoError(t, err)

	// payment mirrors as an expense under "Debt Payment"
	payment, err := e.svc.AddTransaction(ctx, owner, car.ID, debt.TransactionInput{
		Amount:      mustDecimal(2_000_000),
		Kind:        debt.KindPayment,
		Description: func() *string { s := ""; return &s }(),
	})
	require.NoError(t, err)
	assert.True(t, e.remaining(t, ctx, owner, car.ID).Equal(mustDecimal(8_000_000)))

	rows := e.ledgerRows(t, ctx, owner)
	require.Len(t, rows, 1)
	assert.Equal(t, transaction.KindExpense, rows[0].Kind)
	assert.Equal(t, "Debt Payment", rows[0].CategoryName)
	assert.Equal(t, "Trả nợ: Car Loan", rows[0].Description)
	assert.True(t, rows[0].Amount.Equal(mustDecimal(2_000_000)))
	assert.Equal(t, payment.Date, rows[0].Date)
	require.NotNil(t, rows[0].DebtTransactionID)
	assert.Equal(t, payment.ID, *rows[0].DebtTransactionID)

	// increase mirrors as income under "Loan/Debt Increase"
	increase, err := e.svc.AddTransaction(ctx, owner, car.ID, debt.TransactionInput{
		Amount: mustDecimal(500_000),
		Kind:   debt.KindIncrease,
	})
	require.NoError(t, err)
	assert.True(t, e.remaining(t, ctx, owner, car.ID).Equal(mustDecimal(8_500_000)))

	rows = e.ledgerRows(t, ctx, owner)
	require.Len(t, rows, 2)
	var incomeRow *transaction.Transaction
	for _, r := range rows {
		if r.Kind == transaction.KindIncome {
			incomeRow = r
		}
	}
	require.NotNil(t, incomeRow)
	assert.Equal(t, "Loan/Debt Increase", incomeRow.CategoryName)
	assert.Equal(t, "Tăng nợ: Car Loan", incomeRow.Description)

	// updating the payment replaces its mirror
	_, err = e.svc.UpdateTransaction(ctx, owner, car.ID, payment.ID, debt.TransactionInput{
		Amount: mustDecimal(3_000_000),
		Kind:   debt.KindPayment,
	})
	require.NoError(t, err)
	assert.True(t, e.remaining(t, ctx, owner, car.ID).Equal(mustDecimal(7_500_000)))

	rows = e.ledgerRows(t, ctx, owner)
	require.Len(t, rows, 2)
	expenses := 0
	for _, r := range rows {
		if r.Kind == transaction.KindExpense {
			expenses++
			assert.True(t, r.Amount.Equal(mustDecimal(3_000_000)))
			assert.Equal(t, payment.Date, r.Date)
		}
	}
	assert.Equal(t, 1, expenses)

	// deleting the increase removes its mirror
	require.NoError(t, e.svc.DeleteTransaction(ctx, owner, car.ID, increase.ID))
	assert.True(t, e.remaining(t, ctx, owner, car.ID).Equal(mustDecimal(7_000_000)))

	rows = e.ledgerRows(t, ctx, owner)
	require.Len(t, rows, 1)
	assert.Equal(t, transaction.KindExpense, rows[0].Kind)

	// reads are stable
	assert.True(t, e.remaining(t, ctx, owner, car.ID).Equal(e.remaining(t, ctx, owner, car.ID)))

	// deleting the debt takes the ledger and its mirrors with it
	require.NoError(t, e.svc.DeleteDebt(ctx, owner, car.ID))
	assert.Empty(t, e.ledgerRows(t, ctx, owner))
	_, err = e.svc.GetDebt(ctx, owner, car.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddTransaction_RejectsBeforeWriting(t *testing.T) {
	e, ctx := setupService(t)

	d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
	require.NoError(t, err)

	_, err = e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: decimal.Zero, Kind: debt.KindPayment})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = e.svc.AddTransaction(ctx, 2, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	entries, err := e.debts.ListTransactions(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, e.ledgerRows(t, ctx, 1))
	assert.Empty(t, e.ledgerRows(t, ctx, 2))
}

func TestOwnershipIsolation(t *testing.T) {
	e, ctx := setupService(t)

	d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
	require.NoError(t, err)
	dt, err := e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
	require.NoError(t, err)

	_, err = e.svc.UpdateTransaction(ctx, 2, d.ID, dt.ID, debt.TransactionInput{Amount: mustDecimal(20), Kind: debt.KindPayment})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = e.svc.DeleteTransaction(ctx, 2, d.ID, dt.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = e.svc.GetRemainingAmount(ctx, 2, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.True(t, e.remaining(t, ctx, 1, d.ID).Equal(mustDecimal(990)))
	assert.Len(t, e.ledgerRows(t, ctx, 1), 1)
}

func TestAtomicity(t *testing.T) {
	t.Run("add rolls back the entry when the mirror fails", func(t *testing.T) {
		e, ctx := setupService(t)

		d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
		require.NoError(t, err)

		e.mirrors.failCreate = true
		_, err = e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrStorage)

		entries, err := e.debts.ListTransactions(ctx, 1, d.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, e.ledgerRows(t, ctx, 1))
	})

	t.Run("update keeps old values when the mirror fails", func(t *testing.T) {
		e, ctx := setupService(t)

		d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
		require.NoError(t, err)
		dt, err := e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
		require.NoError(t, err)

		e.mirrors.failDelete = true
		_, err = e.svc.UpdateTransaction(ctx, 1, d.ID, dt.ID, debt.TransactionInput{Amount: mustDecimal(50), Kind: debt.KindIncrease})
		require.Error(t, err)

		entries, err := e.debts.ListTransactions(ctx, 1, d.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Amount.Equal(mustDecimal(10)))
		assert.Equal(t, debt.KindPayment, entries[0].Kind)

		rows := e.ledgerRows(t, ctx, 1)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Amount.Equal(mustDecimal(10)))
	})

	t.Run("delete keeps the entry when the mirror fails", func(t *testing.T) {
		e, ctx := setupService(t)

		d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
		require.NoError(t, err)
		dt, err := e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
		require.NoError(t, err)

		e.mirrors.failDelete = true
		require.Error(t, e.svc.DeleteTransaction(ctx, 1, d.ID, dt.ID))

		entries, err := e.debts.ListTransactions(ctx, 1, d.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Len(t, e.ledgerRows(t, ctx, 1), 1)
	})
}

func TestUnlinkedMirrorIsMatchedByValue(t *testing.T) {
	e, ctx := setupService(t)

	d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
	require.NoError(t, err)
	dt, err := e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{
		Amount: mustDecimal(100),
		Kind:   debt.KindPayment,
		Date:   func() *time.Time { t := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC); return &t }(),
	})
	require.NoError(t, err)

	// simulate a mirror written before rows were linked, plus an unrelated look-alike
	_, err = testDB.Pool.Exec(ctx, `UPDATE transactions SET debt_transaction_id = NULL WHERE user_id = 1`)
	require.NoError(t, err)
	require.NoError(t, e.ledger.Create(ctx, &transaction.Transaction{
		OwnerID:     1,
		Amount:      mustDecimal(100),
		Kind:        transaction.KindExpense,
		CategoryID:  category.FallbackID,
		Description: "Trả nợ: Loan",
		Date:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}))

	require.NoError(t, e.svc.DeleteTransaction(ctx, 1, d.ID, dt.ID))

	// exactly one of the two look-alikes is removed
	assert.Len(t, e.ledgerRows(t, ctx, 1), 1)
}

func TestFallbackCategory(t *testing.T) {
	e, ctx := setupService(t)

	d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
	require.NoError(t, err)

	require.NoError(t, testDB.TruncateCategories(ctx))
	_, err = testDB.Pool.Exec(ctx, `INSERT INTO categories (user_id, name, type) VALUES (NULL, 'Other', 'expense')`)
	require.NoError(t, err)

	_, err = e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
	require.NoError(t, err)

	rows := e.ledgerRows(t, ctx, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, category.FallbackID, rows[0].CategoryID)
}

func TestUnseededCategories(t *testing.T) {
	e, ctx := setupService(t)

	d, err := e.svc.CreateDebt(ctx, 1, debt.DebtInput{Name: "Loan", Amount: mustDecimal(1000)})
	require.NoError(t, err)

	require.NoError(t, testDB.TruncateCategories(ctx))

	_, err = e.svc.AddTransaction(ctx, 1, d.ID, debt.TransactionInput{Amount: mustDecimal(10), Kind: debt.KindPayment})
	require.Error(t, err)
	assert.ErrorIs(t, err, category.ErrNotSeeded)

	entries, err := e.svc.ListTransactions(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, e.ledgerRows(t, ctx, 1))
}
