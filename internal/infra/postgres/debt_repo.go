package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/debt"
)

// DebtRepository implements debt.Repository using PostgreSQL
type DebtRepository struct {
	txScope
}

// NewDebtRepository creates a new PostgreSQL debt repository
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{txScope{pool: pool}}
}

const debtColumns = `id, user_id, name, amount::text, interest_rate::text, due_date, description, created_at, updated_at`

// CreateDebt inserts a debt and fills its ID and timestamps
func (r *DebtRepository) CreateDebt(ctx context.Context, d *debt.Debt) error {
	query := `
		INSERT INTO debts (user_id, name, amount, interest_rate, due_date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q(ctx).QueryRow(ctx, query,
		d.OwnerID,
		d.Name,
		d.Amount.String(),
		nullDecimal(d.InterestRate),
		d.DueDate,
		d.Description,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", err)
	}
	return nil
}

// GetDebt retrieves an owner's debt
func (r *DebtRepository) GetDebt(ctx context.Context, ownerID, debtID int64) (*debt.Debt, error) {
	return r.getDebt(ctx, ownerID, debtID, false)
}

// GetDebtForUpdate retrieves an owner's debt with a row lock (SELECT FOR UPDATE)
func (r *DebtRepository) GetDebtForUpdate(ctx context.Context, ownerID, debtID int64) (*debt.Debt, error) {
	return r.getDebt(ctx, ownerID, debtID, true)
}

func (r *DebtRepository) getDebt(ctx context.Context, ownerID, debtID int64, forUpdate bool) (*debt.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1 AND user_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	d, err := scanDebt(r.q(ctx).QueryRow(ctx, query, debtID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, debt.ErrDebtNotFound
		}
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return d, nil
}

// ListDebts returns an owner's debts with paid and remaining amounts summed from their ledgers
func (r *DebtRepository) ListDebts(ctx context.Context, ownerID int64) ([]*debt.Summary, error) {
	query := `
		SELECT d.id, d.user_id, d.name, d.amount::text, d.interest_rate::text, d.due_date,
		       d.description, d.created_at, d.updated_at,
		       COALESCE(SUM(CASE WHEN dt.type = 'payment' THEN dt.amount END), 0)::text,
		       COALESCE(SUM(CASE WHEN dt.type = 'increase' THEN dt.amount END), 0)::text
		FROM debts d
		LEFT JOIN debt_transactions dt ON dt.debt_id = d.id AND dt.user_id = d.user_id
		WHERE d.user_id = $1
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.id DESC
	`

	rows, err := r.q(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var summaries []*debt.Summary
	for rows.Next() {
		var (
			d                       debt.Debt
			amount, payments, incrs string
			rate                    *string
		)
		if err := rows.Scan(
			&d.ID, &d.OwnerID, &d.Name, &amount, &rate, &d.DueDate,
			&d.Description, &d.CreatedAt, &d.UpdatedAt,
			&payments, &incrs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}

		if err := fillDebtNumbers(&d, amount, rate); err != nil {
			return nil, err
		}
		paid, err := parseDecimal("payments", payments)
		if err != nil {
			return nil, err
		}
		increased, err := parseDecimal("increases", incrs)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &debt.Summary{
			Debt:            d,
			PaidAmount:      paid.Sub(increased),
			RemainingAmount: debt.Remaining(d.Amount, paid, increased),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debts: %w", err)
	}

	return summaries, nil
}

// UpdateDebt replaces a debt's mutable fields
func (r *DebtRepository) UpdateDebt(ctx context.Context, d *debt.Debt) error {
	query := `
		UPDATE debts
		SET name = $1, amount = $2, interest_rate = $3, due_date = $4, description = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`

	err := r.q(ctx).QueryRow(ctx, query,
		d.Name,
		d.Amount.String(),
		nullDecimal(d.InterestRate),
		d.DueDate,
		d.Description,
		d.ID,
		d.OwnerID,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return debt.ErrDebtNotFound
		}
		return fmt.Errorf("failed to update debt: %w", err)
	}
	return nil
}

// DeleteDebt removes an owner's debt
func (r *DebtRepository) DeleteDebt(ctx context.Context, ownerID, debtID int64) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM debts WHERE id = $1 AND user_id = $2`, debtID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return debt.ErrDebtNotFound
	}
	return nil
}

// Debt ledger operations

const debtTxColumns = `id, user_id, debt_id, amount::text, type, description, date, created_at, updated_at`

// CreateTransaction inserts a debt ledger entry and fills its ID and timestamps
func (r *DebtRepository) CreateTransaction(ctx context.Context, dt *debt.DebtTransaction) error {
	query := `
		INSERT INTO debt_transactions (user_id, debt_id, amount, type, description, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q(ctx).QueryRow(ctx, query,
		dt.OwnerID,
		dt.DebtID,
		dt.Amount.String(),
		string(dt.Kind),
		dt.Description,
		dt.Date,
	).Scan(&dt.ID, &dt.CreatedAt, &dt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create debt transaction: %w", err)
	}
	return nil
}

// GetTransactionForUpdate retrieves a debt ledger entry with a row lock.
// An entry belonging to another debt or owner is reported as not found.
func (r *DebtRepository) GetTransactionForUpdate(ctx context.Context, ownerID, debtID, txID int64) (*debt.DebtTransaction, error) {
	query := `
		SELECT ` + debtTxColumns + `
		FROM debt_transactions
		WHERE id = $1 AND debt_id = $2 AND user_id = $3
		FOR UPDATE
	`

	dt, err := scanDebtTransaction(r.q(ctx).QueryRow(ctx, query, txID, debtID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, debt.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get debt transaction: %w", err)
	}
	return dt, nil
}

// ListTransactions returns a debt's ledger, newest first
func (r *DebtRepository) ListTransactions(ctx context.Context, ownerID, debtID int64) ([]*debt.DebtTransaction, error) {
	query := `
		SELECT ` + debtTxColumns + `
		FROM debt_transactions
		WHERE debt_id = $1 AND user_id = $2
		ORDER BY date DESC, id DESC
	`

	rows, err := r.q(ctx).Query(ctx, query, debtID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debt transactions: %w", err)
	}
	defer rows.Close()

	var entries []*debt.DebtTransaction
	for rows.Next() {
		dt, err := scanDebtTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt transaction: %w", err)
		}
		entries = append(entries, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debt transactions: %w", err)
	}

	return entries, nil
}

// UpdateTransaction replaces an entry's amount, type, description and date
func (r *DebtRepository) UpdateTransaction(ctx context.Context, dt *debt.DebtTransaction) error {
	query := `
		UPDATE debt_transactions
		SET amount = $1, type = $2, description = $3, date = $4, updated_at = NOW()
		WHERE id = $5 AND debt_id = $6 AND user_id = $7
		RETURNING updated_at
	`

	err := r.q(ctx).QueryRow(ctx, query,
		dt.Amount.String(),
		string(dt.Kind),
		dt.Description,
		dt.Date,
		dt.ID,
		dt.DebtID,
		dt.OwnerID,
	).Scan(&dt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return debt.ErrTransactionNotFound
		}
		return fmt.Errorf("failed to update debt transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a debt ledger entry
func (r *DebtRepository) DeleteTransaction(ctx context.Context, ownerID, debtID, txID int64) error {
	tag, err := r.q(ctx).Exec(ctx,
		`DELETE FROM debt_transactions WHERE id = $1 AND debt_id = $2 AND user_id = $3`,
		txID, debtID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete debt transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return debt.ErrTransactionNotFound
	}
	return nil
}

// SumTransactions returns Σ payments and Σ increases over a debt's ledger
func (r *DebtRepository) SumTransactions(ctx context.Context, ownerID, debtID int64) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'payment' THEN amount END), 0)::text,
		       COALESCE(SUM(CASE WHEN type = 'increase' THEN amount END), 0)::text
		FROM debt_transactions
		WHERE debt_id = $1 AND user_id = $2
	`

	var payments, increases string
	if err := r.q(ctx).QueryRow(ctx, query, debtID, ownerID).Scan(&payments, &increases); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum debt transactions: %w", err)
	}

	p, err := parseDecimal("payments", payments)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	i, err := parseDecimal("increases", increases)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return p, i, nil
}

func scanDebt(row pgx.Row) (*debt.Debt, error) {
	var (
		d      debt.Debt
		amount string
		rate   *string
	)
	if err := row.Scan(
		&d.ID, &d.OwnerID, &d.Name, &amount, &rate, &d.DueDate,
		&d.Description, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := fillDebtNumbers(&d, amount, rate); err != nil {
		return nil, err
	}
	return &d, nil
}

func fillDebtNumbers(d *debt.Debt, amount string, rate *string) error {
	var err error
	if d.Amount, err = parseDecimal("amount", amount); err != nil {
		return err
	}
	if d.InterestRate, err = parseNullDecimal("interest_rate", rate); err != nil {
		return err
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		d.DueDate = &due
	}
	return nil
}

func scanDebtTransaction(row pgx.Row) (*debt.DebtTransaction, error) {
	var (
		dt     debt.DebtTransaction
		amount string
		kind   string
		date   time.Time
	)
	if err := row.Scan(
		&dt.ID, &dt.OwnerID, &dt.DebtID, &amount, &kind,
		&dt.Description, &date, &dt.CreatedAt, &dt.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if dt.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	dt.Kind = debt.Kind(kind)
	dt.Date = date.UTC()
	return &dt, nil
}
