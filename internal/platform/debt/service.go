package debt

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/pkg/logger"
)

// Service manages debts and keeps every debt ledger entry mirrored in the
// general ledger. Each mutation runs in one database transaction: either the
// entry and its mirror both change, or neither does.
type Service struct {
	repo       Repository
	mirrors    MirrorLedger
	categories CategoryResolver
	cache      BalanceCache
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new debt service. A nil cache disables balance caching.
func NewService(repo Repository, mirrors MirrorLedger, categories CategoryResolver, cache BalanceCache, log *logger.Logger) *Service {
	if cache == nil {
		cache = NopBalanceCache{}
	}
	return &Service{
		repo:       repo,
		mirrors:    mirrors,
		categories: categories,
		cache:      cache,
		logger:     log.WithField("component", "debt"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddTransaction records a payment or increase against a debt together with its mirror row
func (s *Service) AddTransaction(ctx context.Context, ownerID, debtID int64, in TransactionInput) (*DebtTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	dt := &DebtTransaction{
		OwnerID: ownerID,
		DebtID:  debtID,
		Amount:  in.Amount,
		Kind:    in.Kind,
		Date:    dateOnly(s.now()),
	}
	if in.Description != nil {
		dt.Description = *in.Description
	}
	if in.Date != nil {
		dt.Date = dateOnly(*in.Date)
	}

	err := s.inTx(ctx, func(txCtx context.Context) error {
		d, err := s.repo.GetDebtForUpdate(txCtx, ownerID, debtID)
		if err != nil {
			return apperrors.Storage("failed to load debt", err)
		}

		categoryID, err := s.resolveCategory(txCtx, dt)
		if err != nil {
			return err
		}

		if err := s.repo.CreateTransaction(txCtx, dt); err != nil {
			return apperrors.Storage("failed to create debt transaction", err)
		}

		if err := s.mirrors.Create(txCtx, newMirror(dt, d.Name, categoryID)); err != nil {
			return apperrors.Storage("failed to create mirror transaction", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID, debtID)
	s.logger.WithContext(ctx).Info("debt transaction added",
		"debt_id", debtID,
		"debt_transaction_id", dt.ID,
		"type", dt.Kind,
		"amount", dt.Amount.String(),
	)
	return dt, nil
}

// UpdateTransaction replaces an entry's values and rebuilds its mirror row
func (s *Service) UpdateTransaction(ctx context.Context, ownerID, debtID, txID int64, in TransactionInput) (*DebtTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *DebtTransaction
	err := s.inTx(ctx, func(txCtx context.Context) error {
		d, err := s.repo.GetDebtForUpdate(txCtx, ownerID, debtID)
		if err != nil {
			return apperrors.Storage("failed to load debt", err)
		}

		pre, err := s.repo.GetTransactionForUpdate(txCtx, ownerID, debtID, txID)
		if err != nil {
			return apperrors.Storage("failed to load debt transaction", err)
		}

		next := *pre
		next.Amount = in.Amount
		next.Kind = in.Kind
		if in.Description != nil {
			next.Description = *in.Description
		}
		if in.Date != nil {
			next.Date = dateOnly(*in.Date)
		}

		if err := s.repo.UpdateTransaction(txCtx, &next); err != nil {
			return apperrors.Storage("failed to update debt transaction", err)
		}

		if err := s.removeMirror(txCtx, pre, d.Name); err != nil {
			return err
		}

		categoryID, err := s.resolveCategory(txCtx, &next)
		if err != nil {
			return err
		}

		if err := s.mirrors.Create(txCtx, newMirror(&next, d.Name, categoryID)); err != nil {
			return apperrors.Storage("failed to create mirror transaction", err)
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID, debtID)
	s.logger.WithContext(ctx).Info("debt transaction updated",
		"debt_id", debtID,
		"debt_transaction_id", txID,
		"type", updated.Kind,
		"amount", updated.Amount.String(),
	)
	return updated, nil
}

// DeleteTransaction removes an entry and its mirror row
func (s *Service) DeleteTransaction(ctx context.Context, ownerID, debtID, txID int64) error {
	err := s.inTx(ctx, func(txCtx context.Context) error {
		d, err := s.repo.GetDebtForUpdate(txCtx, ownerID, debtID)
		if err != nil {
			return apperrors.Storage("failed to load debt", err)
		}

		pre, err := s.repo.GetTransactionForUpdate(txCtx, ownerID, debtID, txID)
		if err != nil {
			return apperrors.Storage("failed to load debt transaction", err)
		}

		// mirror first: its link references the entry
		if err := s.removeMirror(txCtx, pre, d.Name); err != nil {
			return err
		}

		if err := s.repo.DeleteTransaction(txCtx, ownerID, debtID, txID); err != nil {
			return apperrors.Storage("failed to delete debt transaction", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, ownerID, debtID)
	s.logger.WithContext(ctx).Info("debt transaction deleted", "debt_id", debtID, "debt_transaction_id", txID)
	return nil
}

// GetRemainingAmount returns principal − Σ payments + Σ increases for the debt
func (s *Service) GetRemainingAmount(ctx context.Context, ownerID, debtID int64) (decimal.Decimal, error) {
	log := s.logger.WithContext(ctx)

	// the generation is read before the database so a mutation committed in
	// between makes the write-back below a no-op
	cached, generation, ok, err := s.cache.GetRemaining(ctx, ownerID, debtID)
	cacheUsable := err == nil
	if err != nil {
		log.Warn("balance cache read failed", "debt_id", debtID, "error", err)
	} else if ok {
		return cached, nil
	}

	d, err := s.repo.GetDebt(ctx, ownerID, debtID)
	if err != nil {
		return decimal.Zero, apperrors.Storage("failed to load debt", err)
	}

	payments, increases, err := s.repo.SumTransactions(ctx, ownerID, debtID)
	if err != nil {
		return decimal.Zero, apperrors.Storage("failed to sum debt transactions", err)
	}

	remaining := Remaining(d.Amount, payments, increases)
	if cacheUsable {
		if err := s.cache.SetRemaining(ctx, ownerID, debtID, generation, remaining); err != nil {
			log.Warn("balance cache write failed", "debt_id", debtID, "error", err)
		}
	}
	return remaining, nil
}

// ListTransactions returns a debt's ledger, newest first
func (s *Service) ListTransactions(ctx context.Context, ownerID, debtID int64) ([]*DebtTransaction, error) {
	if _, err := s.repo.GetDebt(ctx, ownerID, debtID); err != nil {
		return nil, apperrors.Storage("failed to load debt", err)
	}

	txs, err := s.repo.ListTransactions(ctx, ownerID, debtID)
	if err != nil {
		return nil, apperrors.Storage("failed to list debt transactions", err)
	}
	return txs, nil
}

// resolveCategory finds the mirror category for an entry. Falling back to the
// default category is not an error but is logged: it usually means the
// category seed has not been applied.
func (s *Service) resolveCategory(ctx context.Context, dt *DebtTransaction) (int64, error) {
	name, categoryType := dt.Kind.MirrorCategory()

	id, fallback, err := s.categories.Resolve(ctx, dt.OwnerID, name, categoryType)
	if err != nil {
		return 0, err
	}
	if fallback {
		s.logger.WithContext(ctx).Warn("mirror category not found, using fallback",
			"category", name,
			"category_type", categoryType,
			"fallback_category_id", id,
			"debt_id", dt.DebtID,
		)
	}
	return id, nil
}

// removeMirror deletes the mirror row of pre, the entry as it was before this call.
// Linked rows are removed by link. Older unlinked rows are matched by value and at
// most one is removed; a miss or an ambiguous match is logged, not returned.
func (s *Service) removeMirror(ctx context.Context, pre *DebtTransaction, debtName string) error {
	deleted, err := s.mirrors.DeleteByDebtTransaction(ctx, pre.OwnerID, pre.ID)
	if err != nil {
		return apperrors.Storage("failed to delete mirror transaction", err)
	}
	if deleted > 0 {
		return nil
	}

	match := mirrorMatch(pre, debtName)
	deleted, candidates, err := s.mirrors.DeleteOneMatching(ctx, match)
	if err != nil {
		return apperrors.Storage("failed to delete mirror transaction", err)
	}

	if deleted == 0 || candidates > 1 {
		s.logger.WithContext(ctx).Warn("mirror reconciliation mismatch",
			"code", apperrors.ErrCodeReconciliationMismatch,
			"debt_id", pre.DebtID,
			"debt_transaction_id", pre.ID,
			"matched", deleted,
			"candidates", candidates,
			"amount", match.Amount.String(),
			"kind", match.Kind,
			"date", match.Date.Format(time.DateOnly),
			"description", match.Description,
		)
	}
	return nil
}

// inTx runs fn inside a database transaction, committing when fn succeeds and
// rolling back otherwise
func (s *Service) inTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	txCtx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperrors.Storage("failed to begin transaction", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := s.repo.RollbackTx(txCtx); rbErr != nil {
				s.logger.WithContext(ctx).Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err := fn(txCtx); err != nil {
		return err
	}

	if err := s.repo.CommitTx(txCtx); err != nil {
		return apperrors.Storage("failed to commit transaction", err)
	}

	committed = true
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID, debtID int64) {
	if err := s.cache.Invalidate(ctx, ownerID, debtID); err != nil {
		s.logger.WithContext(ctx).Warn("balance cache invalidation failed", "debt_id", debtID, "error", err)
	}
}
