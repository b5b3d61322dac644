package debt

import (
	"context"

	apperrors "github.com/budgetly/backend/internal/shared/errors"
)

// CreateDebt creates a debt for the owner
func (s *Service) CreateDebt(ctx context.Context, ownerID int64, in DebtInput) (*Debt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	d := &Debt{OwnerID: ownerID}
	applyInput(d, in)

	if err := s.repo.CreateDebt(ctx, d); err != nil {
		return nil, apperrors.Storage("failed to create debt", err)
	}

	s.logger.WithContext(ctx).Info("debt created", "debt_id", d.ID, "amount", d.Amount.String())
	return d, nil
}

// GetDebt returns one of the owner's debts
func (s *Service) GetDebt(ctx context.Context, ownerID, debtID int64) (*Debt, error) {
	d, err := s.repo.GetDebt(ctx, ownerID, debtID)
	if err != nil {
		return nil, apperrors.Storage("failed to load debt", err)
	}
	return d, nil
}

// ListDebts returns the owner's debts with their derived balances
func (s *Service) ListDebts(ctx context.Context, ownerID int64) ([]*Summary, error) {
	debts, err := s.repo.ListDebts(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Storage("failed to list debts", err)
	}
	return debts, nil
}

// UpdateDebt replaces a debt's fields. The ledger is untouched; existing mirror rows
// keep the description they were written with.
func (s *Service) UpdateDebt(ctx context.Context, ownerID, debtID int64, in DebtInput) (*Debt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *Debt
	err := s.inTx(ctx, func(txCtx context.Context) error {
		d, err := s.repo.GetDebtForUpdate(txCtx, ownerID, debtID)
		if err != nil {
			return apperrors.Storage("failed to load debt", err)
		}

		applyInput(d, in)
		if err := s.repo.UpdateDebt(txCtx, d); err != nil {
			return apperrors.Storage("failed to update debt", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID, debtID)
	return updated, nil
}

// DeleteDebt removes a debt, its ledger and the ledger's mirror rows
func (s *Service) DeleteDebt(ctx context.Context, ownerID, debtID int64) error {
	removed := 0
	err := s.inTx(ctx, func(txCtx context.Context) error {
		d, err := s.repo.GetDebtForUpdate(txCtx, ownerID, debtID)
		if err != nil {
			return apperrors.Storage("failed to load debt", err)
		}

		entries, err := s.repo.ListTransactions(txCtx, ownerID, debtID)
		if err != nil {
			return apperrors.Storage("failed to list debt transactions", err)
		}

		for _, dt := range entries {
			if err := s.removeMirror(txCtx, dt, d.Name); err != nil {
				return err
			}
			if err := s.repo.DeleteTransaction(txCtx, ownerID, debtID, dt.ID); err != nil {
				return apperrors.Storage("failed to delete debt transaction", err)
			}
		}
		removed = len(entries)

		if err := s.repo.DeleteDebt(txCtx, ownerID, debtID); err != nil {
			return apperrors.Storage("failed to delete debt", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, ownerID, debtID)
	s.logger.WithContext(ctx).Info("debt deleted", "debt_id", debtID, "debt_transactions_removed", removed)
	return nil
}

func applyInput(d *Debt, in DebtInput) {
	d.Name = in.Name
	d.Amount = in.Amount
	d.InterestRate = in.InterestRate
	d.Description = in.Description
	d.DueDate = nil
	if in.DueDate != nil {
		due := dateOnly(*in.DueDate)
		d.DueDate = &due
	}
}
