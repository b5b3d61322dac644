package category

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/pkg/config"
)

var (
	// ErrCategoryNotFound is returned by repositories when no category matches
	ErrCategoryNotFound = apperrors.NotFound("category")

	// ErrNotSeeded means the fallback category is missing, so mirror rows have
	// nowhere to go until `migrate seed` has run
	ErrNotSeeded = apperrors.Unavailable("categories are not seeded: run `migrate seed`")
)

// Service provides category lookups and seeding
type Service struct {
	repo Repository
}

// NewService creates a new category service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the categories visible to the owner
func (s *Service) List(ctx context.Context, ownerID int64, categoryType *Type) ([]*Category, error) {
	if categoryType != nil && !categoryType.IsValid() {
		return nil, apperrors.Validation("type must be income or expense")
	}

	categories, err := s.repo.List(ctx, ownerID, categoryType)
	if err != nil {
		return nil, apperrors.Storage("failed to list categories", err)
	}
	return categories, nil
}

// Resolve looks a category up by name and type. When none exists it returns
// FallbackID and fallback=true; callers decide whether that is worth reporting.
// A missing fallback category is ErrNotSeeded.
func (s *Service) Resolve(ctx context.Context, ownerID int64, name string, categoryType Type) (int64, bool, error) {
	c, err := s.repo.FindByNameAndType(ctx, ownerID, name, categoryType)
	if err == nil {
		return c.ID, false, nil
	}
	if !errors.Is(err, ErrCategoryNotFound) {
		return 0, false, apperrors.Storage(fmt.Sprintf("failed to resolve category %q", name), err)
	}

	exists, err := s.repo.Exists(ctx, FallbackID)
	if err != nil {
		return 0, false, apperrors.Storage("failed to check fallback category", err)
	}
	if !exists {
		return 0, false, ErrNotSeeded
	}
	return FallbackID, true, nil
}

// Seed makes sure every category from the seed file exists as a global category.
// Returns how many were created.
func (s *Service) Seed(ctx context.Context, seed *config.CategoriesConfig) (int, error) {
	created := 0
	for _, c := range seed.Categories {
		inserted, err := s.repo.EnsureGlobal(ctx, c.Name, Type(c.Type))
		if err != nil {
			return created, fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}
