package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/budgetly/backend/internal/platform/transaction"
)

// TransactionRepository implements transaction.Repository using PostgreSQL.
// Inside a transaction started by another repository it joins that transaction.
type TransactionRepository struct {
	txScope
}

// NewTransactionRepository creates a new PostgreSQL general ledger repository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{txScope{pool: pool}}
}

// Create inserts a ledger row and fills its ID and timestamps
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, type, category_id, description, date, debt_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q(ctx).QueryRow(ctx, query,
		tx.OwnerID,
		tx.Amount.String(),
		string(tx.Kind),
		tx.CategoryID,
		tx.Description,
		tx.Date,
		tx.DebtTransactionID,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

const transactionSelect = `
	SELECT t.id, t.user_id, t.amount::text, t.type, t.category_id, COALESCE(c.name, ''),
	       t.description, t.date, t.debt_transaction_id, t.created_at, t.updated_at
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
`

// GetByID retrieves one of the owner's ledger rows
func (r *TransactionRepository) GetByID(ctx context.Context, ownerID, id int64) (*transaction.Transaction, error) {
	query := transactionSelect + ` WHERE t.id = $1 AND t.user_id = $2`

	tx, err := scanTransaction(r.q(ctx).QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// List returns the owner's ledger rows matching filters, newest first
func (r *TransactionRepository) List(ctx context.Context, ownerID int64, filters transaction.Filters) ([]*transaction.Transaction, error) {
	conditions := []string{"t.user_id = $1"}
	args := []any{ownerID}

	if filters.Kind != nil {
		args = append(args, string(*filters.Kind))
		conditions = append(conditions, fmt.Sprintf("t.type = $%d", len(args)))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		conditions = append(conditions, fmt.Sprintf("t.date >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		conditions = append(conditions, fmt.Sprintf("t.date <= $%d", len(args)))
	}

	query := transactionSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY t.date DESC, t.id DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// DeleteByDebtTransaction removes the rows linked to a debt ledger entry
func (r *TransactionRepository) DeleteByDebtTransaction(ctx context.Context, ownerID, debtTransactionID int64) (int64, error) {
	tag, err := r.q(ctx).Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND debt_transaction_id = $2`,
		ownerID, debtTransactionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete linked transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOneMatching removes the oldest unlinked row equal to m and reports how many
// rows were candidates. Linked rows are never touched.
func (r *TransactionRepository) DeleteOneMatching(ctx context.Context, m transaction.Match) (int64, int64, error) {
	where := `
		WHERE user_id = $1 AND amount = $2 AND type = $3 AND date = $4 AND description = $5
		  AND debt_transaction_id IS NULL
	`
	args := []any{m.OwnerID, m.Amount.String(), string(m.Kind), m.Date, m.Description}
	q := r.q(ctx)

	var candidates int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&candidates); err != nil {
		return 0, 0, fmt.Errorf("failed to count matching transactions: %w", err)
	}
	if candidates == 0 {
		return 0, 0, nil
	}

	query := `
		DELETE FROM transactions
		WHERE id = (SELECT id FROM transactions ` + where + ` ORDER BY id LIMIT 1 FOR UPDATE)
	`
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, candidates, fmt.Errorf("failed to delete matching transaction: %w", err)
	}
	return tag.RowsAffected(), candidates, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		tx     transaction.Transaction
		amount string
		kind   string
		date   time.Time
	)
	if err := row.Scan(
		&tx.ID, &tx.OwnerID, &amount, &kind, &tx.CategoryID, &tx.CategoryName,
		&tx.Description, &date, &tx.DebtTransactionID, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if tx.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	tx.Kind = transaction.Kind(kind)
	tx.Date = date.UTC()
	return &tx, nil
}
