package category

import "context"

// Repository defines the interface for category data access
type Repository interface {
	// List returns global categories plus the owner's own, optionally filtered by type
	List(ctx context.Context, ownerID int64, categoryType *Type) ([]*Category, error)

	// FindByNameAndType returns the owner's category, or a global one, with the given
	// name and type. Owner categories win over global ones. Returns ErrCategoryNotFound.
	FindByNameAndType(ctx context.Context, ownerID int64, name string, categoryType Type) (*Category, error)

	// EnsureGlobal inserts a global category unless one with the same name and type exists.
	// It reports whether a row was inserted.
	EnsureGlobal(ctx context.Context, name string, categoryType Type) (bool, error)

	// Exists reports whether a category with the given id exists
	Exists(ctx context.Context, id int64) (bool, error)
}
