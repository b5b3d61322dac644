package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/budgetly/backend/internal/platform/category"
)

// CategoryRepository implements category.Repository using PostgreSQL
type CategoryRepository struct {
	txScope
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{txScope{pool: pool}}
}

// List returns global categories and the owner's own, optionally filtered by type
func (r *CategoryRepository) List(ctx context.Context, ownerID int64, categoryType *category.Type) ([]*category.Category, error) {
	query := `
		SELECT id, user_id, name, type
		FROM categories
		WHERE (user_id IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR type = $2)
		ORDER BY type, name, id
	`

	var typeArg *string
	if categoryType != nil {
		t := string(*categoryType)
		typeArg = &t
	}

	rows, err := r.q(ctx).Query(ctx, query, ownerID, typeArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByNameAndType looks the category up among the owner's rows first, then global ones
func (r *CategoryRepository) FindByNameAndType(ctx context.Context, ownerID int64, name string, categoryType category.Type) (*category.Category, error) {
	query := `
		SELECT id, user_id, name, type
		FROM categories
		WHERE name = $1 AND type = $2 AND (user_id = $3 OR user_id IS NULL)
		ORDER BY user_id NULLS LAST, id
		LIMIT 1
	`

	c, err := scanCategory(r.q(ctx).QueryRow(ctx, query, name, string(categoryType), ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}

// EnsureGlobal inserts a global category unless it already exists
func (r *CategoryRepository) EnsureGlobal(ctx context.Context, name string, categoryType category.Type) (bool, error) {
	query := `
		INSERT INTO categories (user_id, name, type)
		SELECT NULL::bigint, $1::varchar, $2::varchar
		WHERE NOT EXISTS (
			SELECT 1 FROM categories WHERE user_id IS NULL AND name = $1 AND type = $2
		)
	`

	tag, err := r.q(ctx).Exec(ctx, query, name, string(categoryType))
	if err != nil {
		return false, fmt.Errorf("failed to insert category %s: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether a category row with the id exists
func (r *CategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category %d: %w", id, err)
	}
	return exists, nil
}

func scanCategory(row pgx.Row) (*category.Category, error) {
	var (
		c    category.Category
		kind string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &kind); err != nil {
		return nil, err
	}
	c.Type = category.Type(kind)
	return &c, nil
}
