package transaction

import (
	"context"
	"fmt"

	apperrors "github.com/budgetly/backend/internal/shared/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ErrTransactionNotFound is returned when a ledger row does not exist for the owner
var ErrTransactionNotFound = apperrors.NotFound("transaction")

// Service provides read access to the general ledger
type Service struct {
	repo Repository
}

// NewService creates a new ledger read service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the owner's ledger rows
func (s *Service) List(ctx context.Context, ownerID int64, filters Filters) ([]*Transaction, error) {
	if filters.Kind != nil && !filters.Kind.IsValid() {
		return nil, apperrors.Validation("type must be income or expense")
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, apperrors.Validation("from must not be after to")
	}
	if filters.Offset < 0 {
		return nil, apperrors.Validation("offset cannot be negative")
	}

	switch {
	case filters.Limit <= 0:
		filters.Limit = defaultListLimit
	case filters.Limit > maxListLimit:
		filters.Limit = maxListLimit
	}

	txs, err := s.repo.List(ctx, ownerID, filters)
	if err != nil {
		return nil, apperrors.Storage("failed to list transactions", err)
	}
	return txs, nil
}

// Get returns one ledger row of the owner
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Transaction, error) {
	tx, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("failed to get transaction %d", id), err)
	}
	return tx, nil
}
